package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"moodquest/models"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"google.golang.org/genai"
)

// CapsuleConfig tunes the optional generative path.
type CapsuleConfig struct {
	Model   string        // Gemini model id
	Timeout time.Duration // upper bound per generation call
}

var DefaultCapsuleConfig = CapsuleConfig{
	Model:   "gemini-2.0-flash",
	Timeout: 8 * time.Second,
}

// CapsuleService turns a mood (plus interests and time of day) into a Capsule.
// Gemini is an explicitly injected handle: nil means the deterministic
// table-driven generator serves every request. A configured client that
// fails, times out, or returns junk falls back to the same tables — capsule
// generation never surfaces an error to callers.
type CapsuleService struct {
	Gemini *genai.Client
	Config CapsuleConfig

	titleCaser cases.Caser
}

func NewCapsuleService(client *genai.Client, cfg CapsuleConfig) *CapsuleService {
	if cfg.Model == "" {
		cfg.Model = DefaultCapsuleConfig.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultCapsuleConfig.Timeout
	}
	return &CapsuleService{
		Gemini:     client,
		Config:     cfg,
		titleCaser: cases.Title(language.English),
	}
}

// NormalizeMood lowercases the label and substitutes the documented default
// for anything outside the known mood table.
func NormalizeMood(mood string) string {
	m := strings.ToLower(strings.TrimSpace(mood))
	if _, ok := models.MoodLibrary[m]; !ok {
		return models.DefaultMood
	}
	return m
}

// moodKeywords drive the free-text classifier for /analyze-mood.
var moodKeywords = map[string][]string{
	"happy":     {"happy", "great", "amazing", "excited", "joy", "wonderful", "love"},
	"sad":       {"sad", "down", "lonely", "blue", "cry", "miss", "hurt"},
	"stressed":  {"stressed", "overwhelmed", "deadline", "pressure", "busy", "panic"},
	"energetic": {"energetic", "pumped", "ready", "motivated", "hyped", "fired"},
	"tired":     {"tired", "exhausted", "sleepy", "drained", "worn", "fatigue"},
	"anxious":   {"anxious", "nervous", "worried", "scared", "uneasy", "afraid"},
	"calm":      {"calm", "peaceful", "relaxed", "content", "quiet", "fine"},
	"curious":   {"curious", "wonder", "interesting", "learn", "why", "how"},
}

// AnalyzeMood classifies free text into a known mood label with a rough
// confidence. Unmatched text maps to the default mood.
func (s *CapsuleService) AnalyzeMood(text string) (string, float64) {
	lowered := strings.ToLower(text)
	bestMood := models.DefaultMood
	bestHits := 0
	for mood, words := range moodKeywords {
		hits := 0
		for _, w := range words {
			if strings.Contains(lowered, w) {
				hits++
			}
		}
		if hits > bestHits || (hits == bestHits && hits > 0 && mood < bestMood) {
			bestMood = mood
			bestHits = hits
		}
	}
	if bestHits == 0 {
		return models.DefaultMood, 0.4
	}
	confidence := 0.5 + 0.15*float64(bestHits)
	if confidence > 0.95 {
		confidence = 0.95
	}
	return bestMood, confidence
}

// Generate produces a capsule. It never returns an error: the generative
// path is best-effort and every failure recovers into the fallback tables.
func (s *CapsuleService) Generate(ctx context.Context, mood string, interests []string, timeOfDay string) *models.Capsule {
	mood = NormalizeMood(mood)

	if s.Gemini != nil {
		capsule, err := s.generateWithGemini(ctx, mood, interests, timeOfDay)
		if err == nil {
			return capsule
		}
		log.Printf("⚠️ Gemini capsule generation failed, using fallback: %v", err)
	}
	return s.fallbackCapsule(mood, interests, timeOfDay)
}

// fallbackCapsule is the deterministic table-driven generator. Identical
// inputs always produce structurally identical output.
func (s *CapsuleService) fallbackCapsule(mood string, interests []string, timeOfDay string) *models.Capsule {
	content := models.MoodLibrary[mood]

	greeting, ok := models.Greetings[strings.ToLower(strings.TrimSpace(timeOfDay))]
	if !ok {
		greeting = models.GenericGreeting
	}

	category := "general"
	if len(interests) > 0 && strings.TrimSpace(interests[0]) != "" {
		category = strings.ToLower(strings.TrimSpace(interests[0]))
	}

	return &models.Capsule{
		ID:   uuid.NewString(),
		Mood: mood,
		Adventure: models.Adventure{
			Title:         fmt.Sprintf("%s: %s", s.titleCaser.String(mood), content.Title),
			Prompt:        fmt.Sprintf("%s! %s", greeting, content.Prompt),
			Options:       content.Options,
			Category:      category,
			Difficulty:    content.Difficulty,
			EstimatedTime: content.EstimatedTime,
		},
		MoodBoost:  content.MoodBoost,
		BrainBite:  content.BrainBite,
		HabitNudge: content.HabitNudge,
	}
}

// geminiCapsule mirrors the JSON shape we ask the model for.
type geminiCapsule struct {
	Adventure struct {
		Title         string   `json:"title"`
		Prompt        string   `json:"prompt"`
		Options       []string `json:"options"`
		Category      string   `json:"category"`
		Difficulty    string   `json:"difficulty"`
		EstimatedTime string   `json:"estimated_time"`
	} `json:"adventure"`
	MoodBoost string `json:"mood_boost"`
	BrainBite struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	} `json:"brain_bite"`
	HabitNudge string `json:"habit_nudge"`
}

func (s *CapsuleService) generateWithGemini(ctx context.Context, mood string, interests []string, timeOfDay string) (*models.Capsule, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Config.Timeout)
	defer cancel()

	prompt := fmt.Sprintf(
		`Generate a short personal-growth "adventure capsule" as JSON for a user feeling %q during the %s.
Interests: %s.
Respond with ONLY this JSON shape:
{"adventure":{"title":"","prompt":"","options":["","",""],"category":"","difficulty":"easy|medium|hard","estimated_time":""},"mood_boost":"","brain_bite":{"question":"","answer":""},"habit_nudge":""}`,
		mood, timeOfDay, strings.Join(interests, ", "))

	resp, err := s.Gemini.Models.GenerateContent(ctx, s.Config.Model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}

	var parsed geminiCapsule
	if err := json.Unmarshal([]byte(resp.Text()), &parsed); err != nil {
		return nil, fmt.Errorf("gemini returned unparsable JSON: %w", err)
	}
	if parsed.Adventure.Title == "" || parsed.Adventure.Prompt == "" ||
		len(parsed.Adventure.Options) == 0 || parsed.MoodBoost == "" ||
		parsed.BrainBite.Question == "" || parsed.HabitNudge == "" {
		return nil, fmt.Errorf("gemini capsule missing required fields")
	}

	capsule := &models.Capsule{
		ID:   uuid.NewString(),
		Mood: mood,
		Adventure: models.Adventure{
			Title:         parsed.Adventure.Title,
			Prompt:        parsed.Adventure.Prompt,
			Options:       parsed.Adventure.Options,
			Category:      parsed.Adventure.Category,
			Difficulty:    parsed.Adventure.Difficulty,
			EstimatedTime: parsed.Adventure.EstimatedTime,
		},
		MoodBoost:  parsed.MoodBoost,
		BrainBite:  models.BrainBite{Question: parsed.BrainBite.Question, Answer: parsed.BrainBite.Answer},
		HabitNudge: parsed.HabitNudge,
	}
	if capsule.Adventure.Category == "" {
		capsule.Adventure.Category = "general"
	}
	return capsule, nil
}
