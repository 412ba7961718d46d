package qloo

// Entity type URNs accepted by the search and insights endpoints.
const (
	EntityActor       = "urn:entity:actor"
	EntityAlbum       = "urn:entity:album"
	EntityArtist      = "urn:entity:artist"
	EntityAuthor      = "urn:entity:author"
	EntityBook        = "urn:entity:book"
	EntityBrand       = "urn:entity:brand"
	EntityDestination = "urn:entity:destination"
	EntityDirector    = "urn:entity:director"
	EntityLocality    = "urn:entity:locality"
	EntityMovie       = "urn:entity:movie"
	EntityPerson      = "urn:entity:person"
	EntityPlace       = "urn:entity:place"
	EntityPodcast     = "urn:entity:podcast"
	EntityTVShow      = "urn:entity:tv_show"
	EntityVideoGame   = "urn:entity:videogame"
	Demographics      = "urn:demographics"
	Tag               = "urn:tag"
)

// EntityTypes lists every type a search may be narrowed to.
var EntityTypes = []string{
	EntityActor, EntityAlbum, EntityArtist, EntityAuthor, EntityBook, EntityBrand,
	EntityDestination, EntityDirector, EntityLocality, EntityMovie, EntityPerson,
	EntityPlace, EntityPodcast, EntityTVShow, EntityVideoGame, Demographics, Tag,
}

type SearchResult struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Type  string  `json:"type"`
	Score float64 `json:"score,omitempty"`
}

type searchResponse struct {
	Results []SearchResult `json:"results"`
}

type Location struct {
	City    string `json:"city"`
	Country string `json:"country"`
	Address string `json:"address,omitempty"`
}

type Recommendation struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	AffinityScore float64   `json:"affinity_score"`
	Description   string    `json:"description,omitempty"`
	Location      *Location `json:"location,omitempty"`
	BookingURL    string    `json:"booking_url,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	Categories    []string  `json:"categories,omitempty"`
}

type recommendationsResponse struct {
	Recommendations []Recommendation `json:"recommendations"`
}

type Geocode struct {
	Name         string  `json:"name,omitempty"`
	Admin1Region string  `json:"admin1_region,omitempty"`
	Admin2Region string  `json:"admin2_region,omitempty"`
	CountryCode  string  `json:"country_code,omitempty"`
	Latitude     float64 `json:"latitude,omitempty"`
	Longitude    float64 `json:"longitude,omitempty"`
}

type Keyword struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type SpecialtyDish struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Weight float64 `json:"weight"`
}

// EntityProperties carries the optional attributes of an insights entity.
// Zero numeric values mean the attribute was absent.
type EntityProperties struct {
	Geocode         *Geocode        `json:"geocode,omitempty"`
	Description     string          `json:"description,omitempty"`
	BusinessRating  float64         `json:"business_rating,omitempty"`
	PriceLevel      float64         `json:"price_level,omitempty"`
	Popularity      float64         `json:"popularity,omitempty"`
	Rating          float64         `json:"rating,omitempty"`
	Address         string          `json:"address,omitempty"`
	Phone           string          `json:"phone,omitempty"`
	Website         string          `json:"website,omitempty"`
	Neighborhood    string          `json:"neighborhood,omitempty"`
	Keywords        []Keyword       `json:"keywords,omitempty"`
	SpecialtyDishes []SpecialtyDish `json:"specialty_dishes,omitempty"`
}

type EntityTag struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Weight float64 `json:"weight,omitempty"`
}

type QueryAffinity struct {
	Affinity float64 `json:"affinity"`
}

// InsightsEntity is a single result from the insights endpoint.
type InsightsEntity struct {
	EntityID   string            `json:"entity_id"`
	Name       string            `json:"name"`
	Subtype    string            `json:"subtype,omitempty"`
	Properties *EntityProperties `json:"properties,omitempty"`
	Query      *QueryAffinity    `json:"query,omitempty"`
	Tags       []EntityTag       `json:"tags,omitempty"`
}

func (e InsightsEntity) props() EntityProperties {
	if e.Properties == nil {
		return EntityProperties{}
	}
	return *e.Properties
}

type insightsResponse struct {
	Success bool `json:"success"`
	Results struct {
		Entities []InsightsEntity `json:"entities"`
	} `json:"results"`
}
