package tools

import (
	"context"

	"github.com/egorairo/ShelfSense/qloo"
)

type fakeTaste struct {
	search     []qloo.SearchResult
	recs       []qloo.Recommendation
	places     []qloo.InsightsEntity
	err        error
	lastQuery  string
	lastType   string
	lastRecReq qloo.RecommendationsRequest
	lastPlace  qloo.PlaceQuery
}

func (f *fakeTaste) Search(ctx context.Context, query, entityType string) ([]qloo.SearchResult, error) {
	f.lastQuery, f.lastType = query, entityType
	if f.err != nil {
		return nil, f.err
	}
	return f.search, nil
}

func (f *fakeTaste) Recommendations(ctx context.Context, req qloo.RecommendationsRequest) ([]qloo.Recommendation, error) {
	f.lastRecReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.recs, nil
}

func (f *fakeTaste) PlaceInsights(ctx context.Context, q qloo.PlaceQuery) ([]qloo.InsightsEntity, error) {
	f.lastPlace = q
	if f.err != nil {
		return nil, f.err
	}
	return f.places, nil
}
