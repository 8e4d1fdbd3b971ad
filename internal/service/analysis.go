package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/llm"
)

var (
	ErrNotStool            = errors.New("image does not show stool")
	ErrInvalidImage        = errors.New("image must be base64 encoded")
	ErrUnsupportedFileType = errors.New("unsupported file type, use image files (JPG, PNG) or PDF")
	ErrMalformedAnalysis   = errors.New("analysis response is missing required fields")
)

// NotStoolError carries the model's explanation back to the caller.
type NotStoolError struct {
	Message string
}

func (e *NotStoolError) Error() string        { return e.Message }
func (e *NotStoolError) Is(target error) bool { return target == ErrNotStool }

const (
	foodPrompt = `Analyze this food image and provide detailed nutrition information. Return ONLY a JSON object with this exact structure:
{
  "foodItems": ["list of food items identified"],
  "calories": estimated_total_calories_number,
  "protein": protein_grams_number,
  "carbs": carbs_grams_number,
  "fat": fat_grams_number,
  "fiber": fiber_grams_number,
  "sugar": sugar_grams_number,
  "insights": ["gut health insights", "nutritional benefits", "potential concerns"],
  "gutHealthRating": rating_from_1_to_10
}

Focus on gut health implications and be as accurate as possible with nutrition estimates.`

	stoolSystemPrompt = `You are a medical AI assistant specialized in analyzing stool samples using the Bristol Stool Chart.

CRITICAL INSTRUCTIONS:
1. You MUST respond with ONLY a valid JSON object, no other text
2. Analyze the image to determine if it shows stool/feces
3. If it's NOT stool, return: {"error": "This image does not appear to show stool. Please upload a clear image of stool for analysis."}
4. If it IS stool, classify it using the Bristol Stool Chart (1-7) and provide analysis

Bristol Stool Chart Reference:
- Type 1: Separate hard lumps (severe constipation)
- Type 2: Sausage-shaped but lumpy (mild constipation)
- Type 3: Like a sausage with cracks on surface (normal)
- Type 4: Smooth, soft sausage or snake (ideal/normal)
- Type 5: Soft blobs with clear-cut edges (lacking fiber)
- Type 6: Fluffy pieces with ragged edges (mild diarrhea)
- Type 7: Watery, no solid pieces (severe diarrhea)

For valid stool images, respond with this exact JSON structure:
{
  "bristolType": number (1-7),
  "consistency": string (e.g., "Hard", "Normal", "Soft", "Loose", "Watery"),
  "color": string (e.g., "Brown", "Dark brown", "Light brown", "Yellow", "Green", "Black", "Red"),
  "healthScore": number (1-10, where 10 is healthiest),
  "insights": [
    "Brief analysis of the stool characteristics",
    "What this indicates about digestive health",
    "Any notable observations"
  ],
  "recommendations": [
    "Dietary suggestions if needed",
    "Lifestyle recommendations",
    "When to consult a doctor if concerning"
  ]
}`

	stoolPrompt = "Please analyze this stool image using the Bristol Stool Chart. Determine the Bristol type, consistency, color, and provide health insights. Respond with only the JSON format specified."

	testResultPrompt = `Analyze this medical test result image and provide a structured summary. Return ONLY a JSON object with this exact structure:
{
  "testType": "type of test (blood work, urine, etc.)",
  "keyFindings": ["list of key findings"],
  "values": [{"parameter": "name", "value": "result", "unit": "unit", "referenceRange": "normal range", "status": "normal/high/low"}],
  "recommendations": ["health recommendations based on results"],
  "concernLevel": "low/moderate/high",
  "summary": "brief overall summary"
}

Focus on extracting specific values, identifying any abnormal results, and providing health insights.`
)

type ImageRequest struct {
	Image    string `json:"image" validate:"required"`
	FileType string `json:"file_type,omitempty" validate:"omitempty,max=100"`
}

func ValidateImageRequest(body *ImageRequest) error {
	return validate.Struct(body)
}

// Image is a decoded upload.
type Image struct {
	Data []byte
	MIME string
}

// DecodeImage accepts raw base64 or a data URL. The MIME type comes from
// file_type, then the data URL, then content sniffing.
func DecodeImage(body *ImageRequest) (Image, error) {
	payload := strings.TrimSpace(body.Image)
	mime := strings.TrimSpace(body.FileType)
	if rest, ok := strings.CutPrefix(payload, "data:"); ok {
		header, data, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(header, ";base64") {
			return Image{}, ErrInvalidImage
		}
		if mime == "" {
			mime = strings.TrimSuffix(header, ";base64")
		}
		payload = data
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(raw) == 0 {
		return Image{}, ErrInvalidImage
	}
	if mime == "" {
		mime = http.DetectContentType(raw)
	}
	return Image{Data: raw, MIME: mime}, nil
}

type StoolAnalysis struct {
	BristolType     int      `json:"bristolType"`
	Consistency     string   `json:"consistency"`
	Color           string   `json:"color"`
	HealthScore     float64  `json:"healthScore"`
	Insights        []string `json:"insights"`
	Recommendations []string `json:"recommendations"`
}

type TestValue struct {
	Parameter      string `json:"parameter"`
	Value          string `json:"value"`
	Unit           string `json:"unit"`
	ReferenceRange string `json:"referenceRange"`
	Status         string `json:"status"`
}

type TestResultAnalysis struct {
	TestType        string      `json:"testType"`
	KeyFindings     []string    `json:"keyFindings"`
	Values          []TestValue `json:"values"`
	Recommendations []string    `json:"recommendations"`
	ConcernLevel    string      `json:"concernLevel"`
	Summary         string      `json:"summary"`
}

// pdfResult is returned for PDF uploads, which the vision models cannot read.
var pdfResult = TestResultAnalysis{
	TestType:    "PDF Document (Unable to read)",
	KeyFindings: []string{"PDF files cannot be directly analyzed. Please convert to image format (JPG, PNG) or provide test results as text."},
	Values:      []TestValue{},
	Recommendations: []string{
		"Convert PDF to image format",
		"Take a clear photo of the test results",
		"Ensure all text is readable in the image",
	},
	ConcernLevel: "low",
	Summary:      "PDF file detected but cannot be analyzed directly. Please provide test results in image format for accurate analysis.",
}

// Analyzer turns uploaded images into structured assessments.
type Analyzer struct {
	llm    llm.Client
	logger internal.Logger
}

func NewAnalyzer(client llm.Client, logger internal.Logger) *Analyzer {
	return &Analyzer{llm: client, logger: logger}
}

// AnalyzeFoodImage returns the nutrition estimate as the model's JSON object,
// ready to be stored as a food entry's analysis_result.
func (a *Analyzer) AnalyzeFoodImage(ctx context.Context, img Image) (json.RawMessage, error) {
	raw, err := a.complete(ctx, llm.Request{
		Prompt:      foodPrompt,
		Image:       img.Data,
		ImageMIME:   img.MIME,
		MaxTokens:   1000,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze food image: %w", err)
	}
	return raw, nil
}

func (a *Analyzer) AnalyzeStoolImage(ctx context.Context, img Image) (*StoolAnalysis, error) {
	raw, err := a.complete(ctx, llm.Request{
		System:      stoolSystemPrompt,
		Prompt:      stoolPrompt,
		Image:       img.Data,
		ImageMIME:   img.MIME,
		MaxTokens:   1000,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze stool image: %w", err)
	}

	var sentinel struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &sentinel); err == nil && sentinel.Error != "" {
		return nil, &NotStoolError{Message: sentinel.Error}
	}

	var out StoolAnalysis
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAnalysis, err)
	}
	if out.BristolType < 1 || out.BristolType > 7 || out.Consistency == "" || out.Color == "" {
		a.logger.Warnf("stool analysis missing fields: %s", string(raw))
		return nil, ErrMalformedAnalysis
	}
	return &out, nil
}

// AnalyzeTestResult summarises a lab report. PDFs short-circuit to a fixed
// explanation without calling the model.
func (a *Analyzer) AnalyzeTestResult(ctx context.Context, img Image) (*TestResultAnalysis, error) {
	switch {
	case img.MIME == "application/pdf":
		res := pdfResult
		return &res, nil
	case !strings.HasPrefix(img.MIME, "image/"):
		return nil, ErrUnsupportedFileType
	}

	raw, err := a.complete(ctx, llm.Request{
		Prompt:      testResultPrompt,
		Image:       img.Data,
		ImageMIME:   img.MIME,
		MaxTokens:   1500,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze test result: %w", err)
	}
	var out TestResultAnalysis
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAnalysis, err)
	}
	if out.TestType == "" && out.Summary == "" {
		return nil, ErrMalformedAnalysis
	}
	return &out, nil
}

func (a *Analyzer) complete(ctx context.Context, req llm.Request) (json.RawMessage, error) {
	content, err := a.llm.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	raw, err := llm.ExtractJSON(content)
	if err != nil {
		a.logger.Warnf("model returned no JSON object: %q", truncate(content, 200))
		return nil, err
	}
	return raw, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
