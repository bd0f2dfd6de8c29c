package verdict

// FileType: категория медиа, назначенная сервером.
type FileType string

const (
	FileImage FileType = "image"
	FileAudio FileType = "audio"
	FileVideo FileType = "video"
)

// Label: бинарный итог классификации.
type Label string

const (
	LabelReal Label = "real"
	LabelFake Label = "fake"
)

// Result: канонический вид ответа /predict_all после нормализации.
// Label и Confidence всегда выводятся вместе; частичного результата не бывает.
type Result struct {
	FileType   FileType     `json:"file_type"`
	Label      Label        `json:"label"`
	Confidence float64      `json:"confidence"`       // номинально 0..1, не клампится
	Tracks     []TrackScore `json:"tracks,omitempty"` // только для video
}

// IsFake сообщает, что итог "fake".
func (r Result) IsFake() bool { return r.Label == LabelFake }

// TrackScore: вклад отдельной дорожки видео в итог.
type TrackScore struct {
	Track      string  `json:"track"`           // "video" | "audio"
	Label      string  `json:"label,omitempty"` // как прислал сервер, в нижнем регистре
	Confidence float64 `json:"confidence"`
}
