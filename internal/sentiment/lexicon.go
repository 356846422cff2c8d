package sentiment

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

var polarityLexicon = map[string]float64{
	// English positive
	"good": 0.7, "great": 0.8, "excellent": 1.0, "amazing": 0.9, "awesome": 0.9, "wonderful": 1.0,
	"perfect": 1.0, "nice": 0.6, "fine": 0.4, "happy": 0.8, "glad": 0.6, "love": 0.7, "like": 0.3,
	"helpful": 0.6, "useful": 0.5, "interesting": 0.5, "interested": 0.4, "impressed": 0.7,
	"thanks": 0.3, "thank": 0.3, "cool": 0.4, "best": 1.0, "better": 0.5, "easy": 0.4,
	"fantastic": 0.9, "satisfied": 0.6, "reasonable": 0.3, "fast": 0.3, "reliable": 0.5,
	// English negative
	"bad": -0.7, "terrible": -1.0, "awful": -1.0, "horrible": -1.0, "worst": -1.0, "worse": -0.6,
	"poor": -0.5, "sad": -0.5, "angry": -0.7, "upset": -0.6, "annoyed": -0.6, "annoying": -0.7,
	"frustrated": -0.7, "frustrating": -0.7, "disappointed": -0.7, "disappointing": -0.7,
	"hate": -0.8, "useless": -0.7, "slow": -0.3, "expensive": -0.4, "broken": -0.6,
	"wrong": -0.5, "problem": -0.3, "issue": -0.2, "difficult": -0.4, "confusing": -0.4,
	"waste": -0.6, "rude": -0.7, "unhappy": -0.7, "failed": -0.5, "never": -0.2,
	// romanized Hindi
	"accha": 0.6, "acha": 0.6, "achha": 0.6, "badiya": 0.8, "badhiya": 0.8, "mast": 0.7,
	"shandar": 0.9, "khush": 0.7, "pasand": 0.5, "sahi": 0.4, "dhanyavad": 0.4, "shukriya": 0.4,
	"bura": -0.7, "bekar": -0.7, "bakwas": -0.8, "ganda": -0.6, "galat": -0.5, "pareshan": -0.6,
	"pareshani": -0.5, "dikkat": -0.4, "mushkil": -0.4, "naraz": -0.7, "dukhi": -0.6, "mehenga": -0.4,
}

var negationWords = set(
	"not", "no", "dont", "doesnt", "didnt", "isnt", "wasnt", "arent", "cant", "cannot", "wont",
	"neither", "nor", "nahi", "nahin", "mat", "na",
)

var intensifierWords = set(
	"very", "really", "so", "extremely", "too", "totally", "super", "quite", "highly",
	"bahut", "bohot", "kaafi", "ekdum",
)

// Substring screens. Entries short enough to occur inside ordinary words
// live in the token screens instead.
var englishAbuse = []string{
	"fuck", "fck", "f**k", "f*ck", "fucker", "fucking",
	"bullshit", "sh1t", "shít",
	"bastard", "bstrd",
	"bitch", "btch", "b1tch",
	"asshole", "ashole", "a**hole",
	"motherfucker", "mofo",
	"damn", "dammit",
	"whore", "slut",
	"idiot", "stupid", "moron",
}

var hindiAbuse = []string{
	"chutiya", "chutia", "chutiye",
	"madarchod", "maderchod",
	"bhenchod", "banchod",
	"bhosdike", "bosdk",
	"gaandu", "gandu", "gndu",
	"harami", "hrami",
	"kamina", "kamini",
	"kutta", "kutte", "kutiya", "kutti",
	"saala", "saali",
	"lodu",
	"chodu",
	"randwa", "rndwa",
	"gashti", "ghasti",
}

// Whole-token screens for abbreviations and words that occur inside
// innocent ones.
var englishAbuseTokens = set(
	"mf", "stfu", "wtf", "fuk",
	"shit", "shits", "shitty",
	"dick", "dicks", "dickhead", "prick", "pricks",
	"cunt", "cunts",
	"dumb", "dumbass",
	"loser", "losers",
	"retard", "retards", "retarded",
)

var hindiAbuseTokens = set("mc", "bc", "bsdk", "bkl", "randi", "rndi", "laude")

// Patterns run against the normalized text and catch spaced or stretched
// spellings.
var abusePatterns = []string{
	`\bf+\s*u+\s*c+\s*k+`,
	`\bs+\s*h+\s*i+\s*t+\b`,
	`\bb+\s*i+\s*t+\s*c+\s*h+`,
	`\ba+\s*s+\s*s+\s*h+\s*o+\s*l+\s*e+`,
	`\bc+\s*h+\s*u+\s*t+\s*i+\s*y+\s*a+`,
	`\bb+\s*h+\s*e+\s*n+\s*c+\s*h+\s*o+\s*d+`,
	`\bm+\s*a+\s*d+\s*a+\s*r+\s*c+\s*h+\s*o+\s*d+`,
}
