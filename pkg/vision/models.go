package vision

// OCRResponse mirrors the JSON body returned by the Vision REST API for
// images:annotate with DOCUMENT_TEXT_DETECTION.
type OCRResponse struct {
	Responses []Response `json:"responses"`
}

type Response struct {
	FullTextAnnotation *FullTextAnnotation `json:"fullTextAnnotation"`
	Error              *Status             `json:"error,omitempty"`
}

type Status struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type FullTextAnnotation struct {
	Pages []Page `json:"pages"`
	Text  string `json:"text"`
}

type Page struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Blocks []Block `json:"blocks"`
}

type Block struct {
	BoundingBox BoundingPoly `json:"boundingBox"`
	Paragraphs  []Paragraph  `json:"paragraphs"`
	BlockType   string       `json:"blockType"`
}

type Paragraph struct {
	BoundingBox BoundingPoly `json:"boundingBox"`
	Words       []Word       `json:"words"`
}

type Word struct {
	BoundingBox BoundingPoly `json:"boundingBox"`
	Symbols     []Symbol     `json:"symbols"`
}

type Symbol struct {
	BoundingBox BoundingPoly `json:"boundingBox"`
	Text        string       `json:"text"`
}

type BoundingPoly struct {
	Vertices []Vertex `json:"vertices"`
}

// Vertex coordinates are omitted by the API when zero.
type Vertex struct {
	X int `json:"x"`
	Y int `json:"y"`
}
