package pdfocr

// Config holds user options for building a searchable PDF
type Config struct {
	Debug     bool    // Draw the text layer in red with word boxes instead of hiding it
	DPI       float64 // Source image resolution; 72 maps one pixel to one point
	LayerName string  // Base name of the OCR layer (page number is appended)
	Compress  bool    // Compress page content streams
	Font      FontConfig
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() Config {
	return Config{
		DPI:       72,
		LayerName: "OCR Text",
		Compress:  true,
		Font:      DefaultFont,
	}
}

// FontConfig contains font settings for OCR text rendering
type FontConfig struct {
	Name        string  // Font name (e.g., "Helvetica")
	Style       string  // Font style ("", "B", "I", "BI")
	Size        float64 // Default font size
	AscentRatio float64 // Vertical positioning ratio
}

// DefaultFont uses Helvetica, one of the PDF core fonts
var DefaultFont = FontConfig{
	Name:        "Helvetica",
	Size:        10,
	AscentRatio: 0.718,
}
