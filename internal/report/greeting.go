package report

import "time"

// Greeting returns the salutation for the time of day of t.
func Greeting(t time.Time) string {
	switch hour := t.Hour(); {
	case hour >= 6 && hour < 12:
		return "Доброе утро!"
	case hour >= 12 && hour < 18:
		return "Добрый день!"
	case hour >= 18 && hour < 23:
		return "Добрый вечер!"
	default:
		return "Доброй ночи!"
	}
}
