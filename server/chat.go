package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	shelfsense "github.com/egorairo/ShelfSense"
	"github.com/egorairo/ShelfSense/gaps"
	"github.com/egorairo/ShelfSense/tools/storage"
)

const defaultMargin = 1.0

type chatMessage struct {
	Role            string            `json:"role" binding:"required"`
	Content         string            `json:"content"`
	ToolInvocations []json.RawMessage `json:"toolInvocations,omitempty"`
}

type salesRecord struct {
	SKU    string   `json:"sku" binding:"required"`
	Tags   []string `json:"tags" binding:"required,min=1"`
	Qty    float64  `json:"qty" binding:"gte=0"`
	Margin *float64 `json:"margin"`
}

type chatRequest struct {
	ID        string        `json:"id"`
	Messages  []chatMessage `json:"messages" binding:"required,min=1,dive"`
	Mode      string        `json:"mode"`
	Sales     []salesRecord `json:"sales" binding:"omitempty,dive"`
	StoreType string        `json:"store_type"`
	Location  string        `json:"location"`
}

// filterCompletedMessages drops tool invocation payloads sent back by the
// chat UI and removes assistant turns left empty by them. Tool results are
// not replayed to the model on the next request.
func filterCompletedMessages(messages []chatMessage) []shelfsense.ChatMessage {
	out := make([]shelfsense.ChatMessage, 0, len(messages))
	for _, m := range messages {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if role != "user" && role != "assistant" {
			continue
		}
		if role == "assistant" && strings.TrimSpace(m.Content) == "" {
			continue
		}
		out = append(out, shelfsense.ChatMessage{Role: role, Content: m.Content})
	}
	return out
}

func hasUserText(messages []shelfsense.ChatMessage) bool {
	for _, m := range messages {
		if m.Role == "user" && strings.TrimSpace(m.Content) != "" {
			return true
		}
	}
	return false
}

func toSalesRecords(in []salesRecord) ([]gaps.SalesRecord, error) {
	out := make([]gaps.SalesRecord, 0, len(in))
	for i, r := range in {
		margin := defaultMargin
		if r.Margin != nil {
			margin = *r.Margin
		}
		rec := gaps.SalesRecord{
			SKU:    strings.TrimSpace(r.SKU),
			Tags:   gaps.NormalizeTags(r.Tags),
			Qty:    r.Qty,
			Margin: margin,
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("sales[%d]: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Chat runs one coordinator session and streams it back in the data stream format.
func (s *Server) Chat(c *gin.Context) {
	ctx, span := s.tracer.Start(c.Request.Context(), "server.chat")
	defer span.End()

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}

	messages := filterCompletedMessages(req.Messages)
	if !hasUserText(messages) {
		span.SetStatus(codes.Error, "no user message")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": "messages must include a user message"})
		return
	}

	records, err := toSalesRecords(req.Sales)
	if err != nil {
		span.SetStatus(codes.Error, "invalid sales")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sales", "message": err.Error()})
		return
	}

	mode := shelfsense.ParseMode(req.Mode)
	session := shelfsense.Session{
		ID:       req.ID,
		Mode:     mode,
		Messages: messages,
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if mode == shelfsense.ModeRetail {
		session.Context = shelfsense.ShopProfile{
			StoreType: strings.TrimSpace(req.StoreType),
			Location:  strings.TrimSpace(req.Location),
			Products:  len(records),
		}.Context()
	}
	if len(records) > 0 {
		ctx = storage.WithSales(ctx, records)
	}

	span.SetAttributes(
		attribute.String("session.id", session.ID),
		attribute.String("session.mode", string(mode)),
		attribute.Int("session.messages", len(messages)),
		attribute.Int("session.sales_records", len(records)),
	)
	slog.Info("SERVER: Chat request", "session", session.ID, "mode", mode, "messages", len(messages), "sales_records", len(records))

	setDataStreamHeaders(c.Writer.Header())
	c.Status(http.StatusOK)
	sink := newDataStreamSink(c.Writer)

	outcome, err := s.coordinator.Run(ctx, session, sink)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("SERVER: Chat run failed", "session", session.ID, "error", err)
		if !sink.done() {
			_ = sink.write(partError, "The assistant could not complete this request.")
		}
		return
	}

	span.SetAttributes(
		attribute.String("outcome.finish_reason", outcome.FinishReason),
		attribute.Int("outcome.iterations", outcome.Iterations),
		attribute.Int("outcome.tool_calls", outcome.ToolCalls),
	)
	slog.Info("SERVER: Chat complete", "session", session.ID, "finish_reason", outcome.FinishReason, "iterations", outcome.Iterations, "tool_calls", outcome.ToolCalls)
}
