package store

// GPS holds a decimal-degree coordinate pair extracted from image metadata.
type GPS struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Analysis is the structured output of the meal classifier. The validate tags
// define the response contract: anything outside it is a per-event failure.
type Analysis struct {
	Name     string   `json:"name"      validate:"required"`
	Category string   `json:"category"  validate:"required,oneof=burger other"`
	Rating   int      `json:"rating"    validate:"min=1,max=10"`
	Price    float64  `json:"price"`
	IsBurger bool     `json:"is_burger"`
	Comment  string   `json:"comment"`
	Items    []string `json:"items"`
}

// MealRecord is one persisted entry of the meal log. MsgID is the sole
// deduplication key and must be unique across the store.
type MealRecord struct {
	Analysis

	Sender       string   `json:"sender"`
	MsgID        int      `json:"msg_id"`
	Timestamp    string   `json:"timestamp"`
	ImagePath    *string  `json:"image_path"`
	ImagePaths   []string `json:"image_paths"`
	GPS          *GPS     `json:"gps"`
	Participants []string `json:"participants,omitempty"`
}
