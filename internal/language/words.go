package language

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// Romanized Hindi indicators. English loanwords common in Hinglish
// ("service", "problem") are deliberately absent.
var hindiWords = set(
	// verbs
	"hai", "hain", "tha", "thi", "hoga", "hogi", "karna", "karne", "kiya", "karo", "karein", "karte", "karta",
	"raha", "rahe", "rahi", "sakte", "sakta", "chahte", "chahta", "chahiye", "jaana", "jaanna", "lagega",
	// question words
	"kya", "kaise", "kahan", "kab", "kyun", "kyu", "kaun", "kitna", "kitne", "kaunsa",
	// pronouns
	"mein", "mujhe", "aap", "aapka", "aapko", "hum", "humein", "tum", "yeh", "woh", "ye", "wo", "iska", "uska",
	// postpositions
	"baare", "ke", "se", "ko", "ka", "ki", "ne", "tak", "liye", "wala", "wali",
	// adjectives
	"acha", "accha", "achha", "bura", "theek", "thik", "sahi", "galat", "badiya", "bahut",
	// responses
	"nahi", "nahin", "haan", "ji", "bilkul", "zaroor", "shayad", "pakka",
	// domain
	"paisa", "paise", "rupaye", "samay", "waqt", "kaam", "madad", "jarurat", "seva", "sampark",
	// actions
	"batao", "bolo", "samjhao", "dikhao", "pasand", "pareshani", "dikkat", "mushkil", "suniye", "dekhiye",
	// fillers
	"toh", "phir", "aur", "lekin", "matlab", "agar", "jab", "abhi",
)

var englishWords = set(
	"yes", "no", "good", "bad", "okay", "ok", "fine", "great", "nice", "sure", "bye", "goodbye",
	"service", "services", "cloud", "price", "pricing", "cost", "business", "company", "team", "plan", "plans",
	"help", "support", "please", "thank", "thanks", "sorry", "welcome", "hello", "hi",
	"what", "how", "when", "where", "why", "who", "which", "whose",
	"can", "will", "would", "should", "could", "may", "might", "must",
	"tell", "show", "explain", "need", "want", "like", "have", "get", "give",
	"know", "think", "see", "understand", "interested", "looking",
	"is", "are", "was", "were", "the", "a", "an", "and", "or", "but", "of", "to", "for", "with",
	"you", "your", "i", "me", "my", "we", "our", "it", "this", "that", "thats", "all", "about", "do", "does",
)
