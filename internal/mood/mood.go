// Package mood maps the mood labels of moments to an emoji and a color.
package mood

// Display is how a mood is shown
type Display struct {
	Emoji string `json:"emoji" yaml:"emoji"`
	Color string `json:"color" yaml:"color"`
}

// Default is shown for any mood not in the table
var Default = Display{Emoji: "😐", Color: "#607D8B"}

// Mood labels as the server stores them
const (
	Happy    = "开心"
	Sad      = "悲伤"
	Angry    = "生气"
	Anxious  = "焦虑"
	Helpless = "无奈"
	Excited  = "兴奋"
	Tired    = "疲惫"
)

var table = map[string]Display{
	Happy:    {Emoji: "😄", Color: "#4CAF50"},
	Sad:      {Emoji: "😢", Color: "#2196F3"},
	Angry:    {Emoji: "😡", Color: "#F44336"},
	Anxious:  {Emoji: "😓", Color: "#FF9800"},
	Helpless: {Emoji: "😕", Color: "#9C27B0"},
	Excited:  {Emoji: "🤩", Color: "#FF5722"},
	Tired:    {Emoji: "😪", Color: "#795548"},
}

// Lookup returns the display for mood, or Default
func Lookup(mood string) Display {
	if d, ok := table[mood]; ok {
		return d
	}
	return Default
}

// Known reports whether mood has its own display
func Known(mood string) bool {
	_, ok := table[mood]
	return ok
}

// Labels returns the known moods in a fixed order
func Labels() []string {
	return []string{Happy, Sad, Angry, Anxious, Helpless, Excited, Tired}
}
