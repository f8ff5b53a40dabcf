package outline

// Section is one planned section of the target document.
// Sections are immutable once the outline is confirmed.
type Section struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	Level               int      `json:"level"`
	Description         string   `json:"description"`
	KeyPoints           []string `json:"keyPoints"`
	EstimatedParagraphs int      `json:"estimatedParagraphs"`
}

// Outline is the planner's structured decomposition of the document.
// It is created once and read-only afterwards.
type Outline struct {
	Title           string    `json:"title"`
	Theme           string    `json:"theme"`
	Audience        string    `json:"audience"`
	Style           string    `json:"style"`
	Sections        []Section `json:"sections"`
	TotalParagraphs int       `json:"totalParagraphs"`
}

// SectionIndex returns the position of the section with the given id, or -1.
func (o *Outline) SectionIndex(id string) int {
	for i, s := range o.Sections {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// LaterTitles returns the titles of all sections after index i, in order.
func (o *Outline) LaterTitles(i int) []string {
	var titles []string
	for j := i + 1; j < len(o.Sections); j++ {
		titles = append(titles, o.Sections[j].Title)
	}
	return titles
}
