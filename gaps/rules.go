package gaps

// storeProfile lists category keywords by how well they suit a store type.
type storeProfile struct {
	Excellent []string
	Good      []string
	Avoid     []string
}

// storeCompatibility is keyed by normalized store type.
var storeCompatibility = map[string]storeProfile{
	"coffee_shop": {
		Excellent: []string{"coffee", "espresso", "tea", "matcha", "pastry", "pastries", "bakery", "croissant"},
		Good:      []string{"sandwich", "snack", "dessert", "chocolate", "juice", "smoothie", "breakfast", "cookie"},
		Avoid:     []string{"alcohol", "beer", "wine", "liquor", "spirits", "tobacco", "cannabis", "hardware"},
	},
	"cafe": {
		Excellent: []string{"coffee", "tea", "matcha", "pastry", "pastries", "brunch", "breakfast"},
		Good:      []string{"sandwich", "salad", "dessert", "juice", "smoothie", "wine"},
		Avoid:     []string{"tobacco", "cannabis", "hardware", "electronics"},
	},
	"bakery": {
		Excellent: []string{"bread", "pastry", "pastries", "cake", "croissant", "cookie", "sourdough"},
		Good:      []string{"coffee", "tea", "jam", "sandwich", "dessert"},
		Avoid:     []string{"alcohol", "tobacco", "seafood", "raw meat"},
	},
	"convenience_store": {
		Excellent: []string{"snack", "beverage", "drink", "candy", "chips", "soda", "ready meal"},
		Good:      []string{"coffee", "ice cream", "household", "toiletries", "beer", "sandwich"},
		Avoid:     []string{"luxury", "jewelry", "furniture", "fine dining"},
	},
	"grocery_store": {
		Excellent: []string{"produce", "fruit", "vegetable", "dairy", "bread", "organic", "pantry"},
		Good:      []string{"snack", "beverage", "wine", "beer", "frozen", "international"},
		Avoid:     []string{"electronics", "furniture", "clothing"},
	},
	"bookstore": {
		Excellent: []string{"book", "stationery", "magazine", "comic", "journal"},
		Good:      []string{"coffee", "tea", "gift", "game", "puzzle", "poster"},
		Avoid:     []string{"alcohol", "raw meat", "seafood", "tobacco"},
	},
	"gift_shop": {
		Excellent: []string{"souvenir", "gift", "postcard", "candle", "art print", "craft"},
		Good:      []string{"chocolate", "candy", "book", "jewelry", "stationery"},
		Avoid:     []string{"raw meat", "seafood", "produce", "hardware"},
	},
	"bar": {
		Excellent: []string{"beer", "wine", "cocktail", "spirits", "whiskey", "craft beer"},
		Good:      []string{"snack", "bar food", "nuts", "mixer", "soda"},
		Avoid:     []string{"baby", "toy", "school supplies"},
	},
	"deli": {
		Excellent: []string{"sandwich", "cheese", "charcuterie", "salad", "pickle", "bagel"},
		Good:      []string{"coffee", "soda", "chips", "dessert", "bread"},
		Avoid:     []string{"electronics", "clothing", "tobacco"},
	},
	"restaurant": {
		Excellent: []string{"entree", "appetizer", "dessert", "special", "seasonal"},
		Good:      []string{"wine", "beer", "cocktail", "coffee", "tea"},
		Avoid:     []string{"hardware", "electronics", "clothing"},
	},
}

// locationConflict flags categories that clash with something already near the shop.
type locationConflict struct {
	Key    string
	Avoid  []string
	Reason string
}

var locationConflicts = []locationConflict{
	{
		Key:    "museum",
		Avoid:  []string{"souvenir", "postcard", "art print", "replica"},
		Reason: "Direct competition with museum gift shop",
	},
	{
		Key:    "school",
		Avoid:  []string{"alcohol", "beer", "wine", "liquor", "tobacco", "vape", "cannabis"},
		Reason: "Age-restricted products near a school",
	},
	{
		Key:    "hospital",
		Avoid:  []string{"alcohol", "tobacco", "vape", "energy drink"},
		Reason: "Unhealthy products next to a hospital",
	},
	{
		Key:    "stadium",
		Avoid:  []string{"jersey", "sports merchandise", "team merchandise"},
		Reason: "Competes with official stadium merchandise",
	},
	{
		Key:    "station",
		Avoid:  []string{"newspaper", "magazine"},
		Reason: "Station kiosks already serve this demand",
	},
	{
		Key:    "farmers market",
		Avoid:  []string{"produce", "fruit", "vegetable", "honey"},
		Reason: "Farmers market undercuts fresh produce prices",
	},
}

// demographicHint is advisory context keyed by a phrase in the location description.
type demographicHint struct {
	Keys []string
	Note string
}

var demographicHints = []demographicHint{
	{Keys: []string{"university", "college", "campus", "student"}, Note: "Students nearby favour low price points and grab-and-go formats"},
	{Keys: []string{"office", "business district", "downtown", "financial"}, Note: "Office workers drive weekday breakfast and lunch peaks"},
	{Keys: []string{"residential", "family", "suburb"}, Note: "Residential families favour staples and weekend treats"},
	{Keys: []string{"tourist", "museum", "landmark", "old town"}, Note: "Tourist footfall rewards local specialties and giftable packaging"},
	{Keys: []string{"nightlife", "bar district", "club"}, Note: "Late-evening traffic favours snacks and late opening hours"},
}

// operationalComplexity notes what it takes to stock a category.
var operationalComplexity = map[string]string{
	"fresh":    "Fresh goods need daily rotation and tight waste control",
	"dairy":    "Dairy requires refrigeration",
	"meat":     "Meat requires refrigeration and food-safety handling",
	"seafood":  "Seafood requires cold chain and same-day turnover",
	"alcohol":  "Alcohol requires a liquor license",
	"beer":     "Beer requires a liquor license",
	"wine":     "Wine requires a liquor license",
	"coffee":   "Prepared coffee needs barista equipment and staff training",
	"espresso": "Espresso needs barista equipment and staff training",
	"matcha":   "Matcha drinks need whisking equipment and staff training",
	"frozen":   "Frozen goods require freezer space",
	"tobacco":  "Tobacco requires a retail tobacco permit",
}
