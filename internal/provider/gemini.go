package provider

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/caption"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// generationTemperature keeps sampling deterministic-leaning so timestamps
// and field names stay stable across runs.
const generationTemperature float32 = 0.1

// Gemini implements Provider using the Google Gemini file and generation
// APIs.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini provider. An empty model selects DefaultModel.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if model == "" {
		model = DefaultModel
	}

	return &Gemini{client: client, model: model}, nil
}

// Upload submits the media bytes with their declared type. A missing MIME
// type falls back to DefaultMIMEType. The response must carry a URI; the
// SDK's response envelope is not guaranteed, so its absence is a hard error.
func (g *Gemini) Upload(ctx context.Context, in UploadInput) (*FileRef, error) {
	mimeType := in.MIMEType
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}

	file, err := g.client.Files.Upload(ctx, in.Reader, &genai.UploadFileConfig{
		MIMEType:    mimeType,
		DisplayName: in.DisplayName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload media: %w", err)
	}
	if file == nil || file.URI == "" {
		return nil, fmt.Errorf("upload response did not include a file URI")
	}

	return &FileRef{
		URI:      file.URI,
		Name:     file.Name,
		MIMEType: string(file.MIMEType),
		State:    fileState(file.State),
	}, nil
}

// FileState re-queries the uploaded resource's processing state.
func (g *Gemini) FileState(ctx context.Context, name string) (FileState, error) {
	file, err := g.client.Files.Get(ctx, name, nil)
	if err != nil {
		return "", fmt.Errorf("failed to query file state: %w", err)
	}
	return fileState(file.State), nil
}

// GenerateCaptions issues one structured-output request and returns the
// raw response text.
func (g *Gemini) GenerateCaptions(
	ctx context.Context,
	ref *FileRef,
	target caption.TargetLanguage,
) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(buildCaptionPrompt(target)),
		genai.NewPartFromURI(ref.URI, ref.MIMEType),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(generationTemperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   captionSchema(),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("caption generation failed: %w", err)
	}

	text := responseText(result)
	if text == "" {
		return "", fmt.Errorf("empty response from Gemini")
	}
	return text, nil
}

// DeleteFile removes the uploaded resource. Failures are surfaced but safe
// to ignore; the provider expires files on its own.
func (g *Gemini) DeleteFile(ctx context.Context, name string) error {
	_, err := g.client.Files.Delete(ctx, name, nil)
	return err
}

func fileState(s genai.FileState) FileState {
	switch s {
	case genai.FileStateProcessing:
		return StateProcessing
	case genai.FileStateFailed:
		return StateFailed
	default:
		return StateActive
	}
}

// captionSchema is the strict output contract: an array of objects with
// exactly the four caption fields, all strings, all required.
func captionSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"startTime":      {Type: genai.TypeString},
				"endTime":        {Type: genai.TypeString},
				"originalText":   {Type: genai.TypeString},
				"translatedText": {Type: genai.TypeString},
			},
			Required: []string{"startTime", "endTime", "originalText", "translatedText"},
		},
	}
}

// buildCaptionPrompt states the transcription task and the fixed bilingual
// pairing rule: the detected spoken language fills originalText, the other
// member of the English/Chinese pair fills translatedText. The target
// preference only biases which language the model prioritizes for quality.
func buildCaptionPrompt(target caption.TargetLanguage) string {
	var sb strings.Builder

	sb.WriteString("Transcribe the speech in this media file and produce bilingual subtitles. ")
	sb.WriteString("Split the speech into caption-sized phrases. ")
	sb.WriteString("For each phrase output startTime and endTime in the exact format HH:MM:SS,mmm ")
	sb.WriteString("(zero-padded, comma before the milliseconds). ")
	sb.WriteString("Detect the spoken language. Put the transcription in the spoken language into originalText. ")
	sb.WriteString("If the spoken language is Chinese, put an English translation into translatedText; ")
	sb.WriteString("otherwise put a Chinese translation into translatedText. ")

	switch target {
	case caption.TargetChinese:
		sb.WriteString("Prioritize natural, fluent Chinese phrasing. ")
	case caption.TargetEnglish:
		sb.WriteString("Prioritize natural, fluent English phrasing. ")
	}

	sb.WriteString("Keep captions in playback order with non-decreasing start times.")

	return sb.String()
}

func responseText(result *genai.GenerateContentResponse) string {
	if result == nil {
		return ""
	}
	var sb strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
	}
	return sb.String()
}
