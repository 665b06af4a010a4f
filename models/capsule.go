package models

// Adventure is the prompt half of a capsule: what the user is invited to do.
type Adventure struct {
	Title         string   `json:"title"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	Category      string   `json:"category"`
	Difficulty    string   `json:"difficulty"` // easy, medium, hard
	EstimatedTime string   `json:"estimated_time"`
}

// BrainBite is a single trivia question/answer pair.
type BrainBite struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Capsule is one generated content bundle driving an adventure cycle.
// Immutable once produced; later choices reference it by ID only.
type Capsule struct {
	ID         string    `json:"id"`
	Mood       string    `json:"mood"`
	Adventure  Adventure `json:"adventure"`
	MoodBoost  string    `json:"mood_boost"`
	BrainBite  BrainBite `json:"brain_bite"`
	HabitNudge string    `json:"habit_nudge"`
}

// MoodContent is one static table entry the fallback generator selects from.
type MoodContent struct {
	Title         string
	Prompt        string
	Options       []string
	Difficulty    string
	EstimatedTime string
	MoodBoost     string
	HabitNudge    string
	BrainBite     BrainBite
}

// DefaultMood is substituted whenever an unrecognized mood label comes in.
const DefaultMood = "curious"

// MoodLibrary is the fixed mood → content mapping used whenever the
// generative service is absent or fails. Selection is deterministic.
var MoodLibrary = map[string]MoodContent{
	"happy": {
		Title:         "Ride the Wave",
		Prompt:        "You're glowing today. Pick one way to spread it around.",
		Options:       []string{"Send a voice note to a friend", "Compliment a stranger", "Start the project you keep postponing"},
		Difficulty:    "easy",
		EstimatedTime: "10 min",
		MoodBoost:     "Joy shared is joy doubled. You're already ahead.",
		HabitNudge:    "Write down one thing that made today good before bed.",
		BrainBite: BrainBite{
			Question: "Smiling, even on purpose, can lower your heart rate after stress. True or false?",
			Answer:   "True — researchers call it the facial feedback effect.",
		},
	},
	"sad": {
		Title:  "Small Kindnesses",
		Prompt: "Heavy days need gentle moves. Choose one tiny act of care for yourself.",
		Options: []string{
			"Make your favorite warm drink and sit with it",
			"Text someone who always gets it",
			"Step outside for five slow breaths",
		},
		Difficulty:    "easy",
		EstimatedTime: "5 min",
		MoodBoost:     "Feeling low isn't failing. Showing up here already counts.",
		HabitNudge:    "Keep a comfort playlist ready for days like this.",
		BrainBite: BrainBite{
			Question: "Does naming an emotion out loud reduce its intensity?",
			Answer:   "Yes — labeling feelings calms the amygdala's response.",
		},
	},
	"stressed": {
		Title:  "Pressure Valve",
		Prompt: "Your shoulders are up by your ears. Pick a release.",
		Options: []string{
			"Do a 4-7-8 breathing round",
			"Brain-dump every open loop onto paper",
			"Walk one block without your phone",
		},
		Difficulty:    "easy",
		EstimatedTime: "7 min",
		MoodBoost:     "Stress means you care. Now give it somewhere to go.",
		HabitNudge:    "Block ten unscheduled minutes in tomorrow's calendar.",
		BrainBite: BrainBite{
			Question: "How long does a single deep-breathing cycle take to lower cortisol?",
			Answer:   "Around 90 seconds of slow exhales measurably shifts the stress response.",
		},
	},
	"energetic": {
		Title:  "Spend It Well",
		Prompt: "You've got fuel in the tank. Burn it on something that matters.",
		Options: []string{
			"Do a 15-minute workout right now",
			"Clear the one chore you've dodged all week",
			"Pitch that idea you keep sitting on",
		},
		Difficulty:    "medium",
		EstimatedTime: "15 min",
		MoodBoost:     "Momentum is rare. Ride it while it's here.",
		HabitNudge:    "Note what gave you this energy so you can repeat it.",
		BrainBite: BrainBite{
			Question: "Does physical activity in the morning improve focus later in the day?",
			Answer:   "Yes — a single session boosts attention for up to two hours after.",
		},
	},
	"tired": {
		Title:  "Low Power Mode",
		Prompt: "Running on fumes is information, not weakness. Choose a recharge.",
		Options: []string{
			"Take a 20-minute screen-free rest",
			"Drink a glass of water and stretch",
			"Say no to one thing on today's list",
		},
		Difficulty:    "easy",
		EstimatedTime: "20 min",
		MoodBoost:     "Rest is productive. Batteries don't refill themselves.",
		HabitNudge:    "Set a wind-down alarm one hour before your target bedtime.",
		BrainBite: BrainBite{
			Question: "What's the ideal nap length to avoid grogginess?",
			Answer:   "10–20 minutes — long enough to restore, short enough to skip deep sleep.",
		},
	},
	"curious": {
		Title:  "Down the Rabbit Hole",
		Prompt: "That itch to learn something? Scratch it on purpose.",
		Options: []string{
			"Read one article on a topic you know nothing about",
			"Ask someone about their weirdest skill",
			"Try a five-minute tutorial for a new tool",
		},
		Difficulty:    "easy",
		EstimatedTime: "10 min",
		MoodBoost:     "Curiosity is the engine. Everything else is steering.",
		HabitNudge:    "Keep a running list of questions you want answered someday.",
		BrainBite: BrainBite{
			Question: "Octopuses have how many hearts?",
			Answer:   "Three — two pump blood to the gills, one to the body.",
		},
	},
	"anxious": {
		Title:  "Ground Control",
		Prompt: "Your mind is sprinting ahead. Bring it back to right now.",
		Options: []string{
			"Name 5 things you can see, 4 you can hear, 3 you can touch",
			"Write the worry down and schedule it for later",
			"Hold something cold for thirty seconds",
		},
		Difficulty:    "easy",
		EstimatedTime: "5 min",
		MoodBoost:     "Anxiety lies about the odds. You've survived 100% of your worst days.",
		HabitNudge:    "Pick one daily anchor routine — same time, same place.",
		BrainBite: BrainBite{
			Question: "Why does the 5-4-3-2-1 grounding trick work?",
			Answer:   "It redirects attention to the senses, interrupting the threat loop.",
		},
	},
	"calm": {
		Title:  "Keep the Still Water",
		Prompt: "You're steady today. Invest it somewhere quiet.",
		Options: []string{
			"Journal three sentences about this week",
			"Tidy one small surface mindfully",
			"Plan tomorrow's first hour",
		},
		Difficulty:    "easy",
		EstimatedTime: "10 min",
		MoodBoost:     "Calm isn't boring. It's the platform everything good is built on.",
		HabitNudge:    "Notice what made today calm and protect it tomorrow.",
		BrainBite: BrainBite{
			Question: "Does handwriting a journal entry engage the brain differently than typing?",
			Answer:   "Yes — handwriting activates broader memory and motor regions.",
		},
	},
}

// Greetings keyed by time-of-day bucket; GenericGreeting covers anything else.
var Greetings = map[string]string{
	"morning":   "Good morning",
	"afternoon": "Good afternoon",
	"evening":   "Good evening",
	"night":     "Winding down",
}

const GenericGreeting = "Hey there"

// DailySparks feed the auth-free demo endpoint only. Cosmetic randomness —
// nothing persisted ever reads from this list.
var DailySparks = []string{
	"Do one thing today your future self will thank you for.",
	"Tiny steps still move you forward.",
	"Drink some water. Seriously, right now.",
	"Text someone you haven't talked to in a month.",
	"Your streak misses you.",
}
