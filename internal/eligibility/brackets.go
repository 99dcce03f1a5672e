package eligibility

// Bracket is one selectable range on a size scale.
type Bracket struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Scale is an ordered list of brackets, lowest first. The position of a
// bracket in the scale is its intensity.
type Scale struct {
	Name     string    `json:"name"`
	Brackets []Bracket `json:"brackets"`
}

// Scales used by the classifier. The assets scale has no 100m-499m bracket;
// the gap is inherited from the questionnaire and intensities follow position.
var (
	RevenueScale = Scale{
		Name: "revenue",
		Brackets: []Bracket{
			{ID: "lt-50m", Label: "Less than $50,000,000"},
			{ID: "50m-199999999", Label: "$50,000,000 to $199,999,999"},
			{ID: "200m-499999999", Label: "$200,000,000 to $499,999,999"},
			{ID: "gte-500m", Label: "$500,000,000 or more"},
		},
	}
	AssetsScale = Scale{
		Name: "assets",
		Brackets: []Bracket{
			{ID: "lt-25m", Label: "Less than $25,000,000"},
			{ID: "25m-99999999", Label: "$25,000,000 to $99,999,999"},
			{ID: "500m-999999999", Label: "$500,000,000 to $999,999,999"},
			{ID: "gte-1b", Label: "$1,000,000,000 or more"},
		},
	}
	EmployeesScale = Scale{
		Name: "employees",
		Brackets: []Bracket{
			{ID: "lt-100", Label: "Less than 100"},
			{ID: "100-249", Label: "100 to 249"},
			{ID: "250-499", Label: "250 to 499"},
			{ID: "gte-500", Label: "500 or more"},
		},
	}
)

// Index returns the position of id in the scale, or -1 if id is unknown.
func (s Scale) Index(id string) int {
	for i, b := range s.Brackets {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// Met reports whether id is a known bracket above the lowest one. Unknown
// and empty ids never meet the threshold.
func (s Scale) Met(id string) bool {
	return s.Index(id) > 0
}

// Intensity returns the bracket position, treating unknown ids as the lowest
// bracket.
func (s Scale) Intensity(id string) int {
	return max(0, s.Index(id))
}

// Top is the intensity of the highest bracket.
func (s Scale) Top() int {
	return len(s.Brackets) - 1
}

// Label returns the display label for id, or id itself when unknown.
func (s Scale) Label(id string) string {
	if i := s.Index(id); i >= 0 {
		return s.Brackets[i].Label
	}
	return id
}
