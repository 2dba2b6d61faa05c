package classifier

// Example is one labelled description of the bootstrap corpus.
type Example struct {
	Description string
	Category    string
}

// Category names known to the classifier. Other is only ever produced by
// the keyword fallback.
const (
	Food          = "Food"
	Transport     = "Transport"
	Shopping      = "Shopping"
	Entertainment = "Entertainment"
	Utilities     = "Utilities"
	Health        = "Health"
	Other         = "Other"
)

var corpus = [...]Example{
	{"Domino's Pizza", Food},
	{"KFC", Food},
	{"Grocery shopping at Carrefour", Food},
	{"McDonald's", Food},
	{"Subway", Food},
	{"Lidl", Food},
	{"Restaurant", Food},
	{"Cafe", Food},
	{"Sushi", Food},
	{"Burger King", Food},
	{"Pizza Hut", Food},
	{"Local market", Food},
	{"Bakery", Food},
	{"Coffee shop", Food},

	{"Uber ride", Transport},
	{"Bus ticket", Transport},
	{"Train pass", Transport},
	{"Gas station", Transport},
	{"Taxi", Transport},
	{"Monthly bus pass", Transport},
	{"Fuel", Transport},
	{"Airport transfer", Transport},
	{"Car rental", Transport},
	{"Bike rental", Transport},
	{"Parking fee", Transport},
	{"Public transport", Transport},

	{"H&M", Shopping},
	{"Zara", Shopping},
	{"Amazon", Shopping},
	{"Nike", Shopping},
	{"Adidas", Shopping},
	{"IKEA", Shopping},
	{"Clothing", Shopping},
	{"Electronics", Shopping},
	{"Furniture", Shopping},
	{"Department store", Shopping},
	{"Online shopping", Shopping},
	{"Gift shop", Shopping},

	{"Netflix", Entertainment},
	{"Spotify", Entertainment},
	{"Cinema", Entertainment},
	{"Theater", Entertainment},
	{"Concert", Entertainment},
	{"Disney+", Entertainment},
	{"Video games", Entertainment},
	{"Books", Entertainment},
	{"Museum", Entertainment},
	{"Sports event", Entertainment},
	{"Theme park", Entertainment},

	{"Electricity bill", Utilities},
	{"Water bill", Utilities},
	{"Internet bill", Utilities},
	{"Phone bill", Utilities},
	{"Gas bill", Utilities},
	{"Rent", Utilities},
	{"Home insurance", Utilities},
	{"Property tax", Utilities},
	{"Maintenance", Utilities},
	{"Cleaning service", Utilities},

	{"Pharmacy", Health},
	{"Doctor", Health},
	{"Medicine", Health},
	{"Gym membership", Health},
	{"Dental", Health},
	{"Health insurance", Health},
	{"Medical supplies", Health},
	{"Fitness class", Health},
	{"Yoga", Health},
	{"Massage", Health},
}

type keywordRule struct {
	category string
	keywords []string
}

// Checked in order; the first category with a matching substring wins.
var keywordRules = [...]keywordRule{
	{Food, []string{"food", "restaurant", "pizza", "kfc", "mcdonalds", "grocery", "cafe", "subway", "lidl", "carrefour"}},
	{Transport, []string{"uber", "taxi", "bus", "train", "transport", "fuel", "gas station"}},
	{Shopping, []string{"shopping", "store", "mall", "h&m", "zara", "amazon", "nike", "adidas", "ikea", "clothing"}},
	{Entertainment, []string{"netflix", "spotify", "movie", "cinema", "theater", "concert", "disney+"}},
	{Utilities, []string{"bill", "utility", "electricity", "water", "gas", "internet", "phone"}},
	{Health, []string{"pharmacy", "doctor", "health", "medical", "medicine", "gym", "dental"}},
}

// Corpus returns a copy of the bootstrap training set.
func Corpus() []Example {
	out := make([]Example, len(corpus))
	copy(out, corpus[:])
	return out
}

// Categories returns the distinct labels of the bootstrap corpus in
// alphabetical order.
func Categories() []string {
	return distinctLabels(corpus[:])
}
