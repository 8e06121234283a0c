package generate

// TypeCover marks the cover record in generation output, every other type is
// treated as content.
const TypeCover = "cover"

// Record is slide shaped record returned by the generation service. Slide
// boundaries it carries are not layout aware and are discarded by pagination.
type Record struct {
	Type     string   `json:"type"`
	Title    string   `json:"title,omitempty"`
	Subtitle string   `json:"subtitle,omitempty"`
	Content  []string `json:"content"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// IsCover reports whether record is the cover.
func (r *Record) IsCover() bool {
	return r.Type == TypeCover
}

// FindCover returns first cover record or nil.
func FindCover(records []Record) *Record {
	for i := range records {
		if records[i].IsCover() {
			return &records[i]
		}
	}
	return nil
}
