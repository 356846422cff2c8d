package engine

import (
	"fmt"

	"github.com/kaphack/voicecall-assistant/internal/core"
)

// phrases holds one text per language. English is the fallback.
type phrases map[core.Language]string

func (p phrases) in(lang core.Language) string {
	if s, ok := p[lang]; ok {
		return s
	}
	return p[core.English]
}

type personaPhrases map[core.Persona]phrases

func (p personaPhrases) get(persona core.Persona, lang core.Language) string {
	if row, ok := p[persona]; ok {
		return row.in(lang)
	}
	return p[core.DefaultPersona].in(lang)
}

var displayNames = map[core.Persona]string{
	core.PersonaPriyanshu: "Priyanshu",
	core.PersonaTanmay:    "Tanmay",
	core.PersonaEkta:      "Ekta",
	core.PersonaPriyanka:  "Priyanka",
}

// Greetings take the company name.
var greetings = personaPhrases{
	core.PersonaPriyanshu: {
		core.English:  "Hello! I'm Priyanshu from %s. How are you doing today?",
		core.Hindi:    "Namaste! Main Priyanshu bol raha hun %s se. Aap kaise hain?",
		core.Hinglish: "Hello! Main Priyanshu hun %s se. Aap kaise hain? How can I help you?",
	},
	core.PersonaTanmay: {
		core.English:  "Hey there! Tanmay here from %s. How's your day going?",
		core.Hindi:    "Namaste ji! Main Tanmay, %s se. Kaisa chal raha hai aapka din?",
		core.Hinglish: "Hey! Main Tanmay, %s se. Kaisa chal raha hai? How can I help?",
	},
	core.PersonaEkta: {
		core.English:  "Good day. This is Ekta from %s. How may I assist you today?",
		core.Hindi:    "Namaskar. Main Ekta bol rahi hun %s se. Main aapki kya sahayata kar sakti hun?",
		core.Hinglish: "Namaskar. Main Ekta hun %s se. How may I assist you today?",
	},
	core.PersonaPriyanka: {
		core.English:  "Hello, this is Priyanka from %s. What can I help you with today?",
		core.Hindi:    "Namaste, main Priyanka bol rahi hun %s se. Aapko kis cheez mein madad chahiye?",
		core.Hinglish: "Hello, main Priyanka hun %s se. Aapko kis cheez mein help chahiye?",
	},
}

var goodbyes = personaPhrases{
	core.PersonaPriyanshu: {
		core.Hindi:    "Dhanyawad aapka! Aapka din shubh rahe. Agar kabhi bhi madad chahiye, please call karein!",
		core.Hinglish: "Thank you so much! Have a great day. Agar kabhi help chahiye, feel free to call!",
		core.English:  "Thank you for your time! Have a wonderful day. Feel free to reach out anytime!",
	},
	core.PersonaTanmay: {
		core.Hindi:    "Bahut badiya baat ki aapne! Aapka din amazing rahe! Bye bye!",
		core.Hinglish: "Great talking to you! Have an amazing day! Bye!",
		core.English:  "It was awesome chatting with you! Have an amazing day! Bye!",
	},
	core.PersonaEkta: {
		core.Hindi:    "Aapke samay ke liye bahut bahut dhanyawad. Aapka din mangalmay ho.",
		core.Hinglish: "Thank you very much for your time. Aapka din shubh rahe.",
		core.English:  "Thank you very much for your valuable time. Wishing you a pleasant day.",
	},
	core.PersonaPriyanka: {
		core.Hindi:    "Dhanyawad. Agar technical assistance chahiye toh please contact karein.",
		core.Hinglish: "Thank you. If you need technical assistance, please reach out.",
		core.English:  "Thank you. Should you require technical assistance, please don't hesitate to contact us.",
	},
}

var answerIntros = personaPhrases{
	core.PersonaPriyanshu: {
		core.Hindi:    "Ji haan, main aapko batata hun. ",
		core.Hinglish: "Sure, let me explain. ",
		core.English:  "Absolutely! ",
	},
	core.PersonaTanmay: {
		core.Hindi:    "Bilkul! Ye suniye! ",
		core.Hinglish: "For sure! Dekho, ",
		core.English:  "Totally! Check this out! ",
	},
	core.PersonaEkta: {
		core.Hindi:    "Avashya. ",
		core.Hinglish: "Certainly. ",
		core.English:  "Certainly. ",
	},
	core.PersonaPriyanka: {
		core.Hindi:    "Technical details hain: ",
		core.Hinglish: "From a technical standpoint, ",
		core.English:  "Technically speaking, ",
	},
}

var (
	followUps = phrases{
		core.Hindi:    " Kya aap is baare mein aur kuch jaanna chahenge?",
		core.Hinglish: " Anything else aap jaanna chahenge?",
		core.English:  " Would you like to know more about this?",
	}
	noKnowledge = phrases{
		core.Hindi:    "Mujhe is specific question ka answer nahi pata. Main aapko apne specialist se connect kar deta hun jo detail mein bata sakenge.",
		core.Hinglish: "I don't have specific details on this. Let me connect you with our specialist jo explain kar sakenge.",
		core.English:  "I don't have specific information on that. Let me connect you with our specialist who can help.",
	}
	abusive = phrases{
		core.English:  "I'm here to help, but I need our conversation to be respectful. If you'd like to continue professionally, I'm happy to assist. Otherwise, I'll have to end this call.",
		core.Hindi:    "Main aapki madad karna chahta hun, lekin hamari conversation respectful honi chahiye. Agar aap professionally baat karna chahte hain, main khush hun. Warna mujhe ye call end karni padegi.",
		core.Hinglish: "Main help karna chahta hun, but conversation respectful honi chahiye. If you want to continue professionally, I'm here. Otherwise I'll have to end the call.",
	}
	failureReply = phrases{
		core.English:  "Thank you for your time. Our team will be happy to assist you further.",
		core.Hindi:    "Aapke samay ke liye dhanyawad. Hamari team aapki madad karegi.",
		core.Hinglish: "Aapke time ke liye thank you. Hamari team aapki help karegi.",
	}
	pleaseRepeat = phrases{
		core.English:  "Sorry, I didn't catch that. Could you please repeat?",
		core.Hindi:    "Maaf kijiye, main samajh nahi paya. Kya aap dobara bol sakte hain?",
		core.Hinglish: "Sorry, main samajh nahi paya. Can you please repeat?",
	}
	generic = phrases{
		core.English:  "I understand. Can you tell me more about what you're looking for?",
		core.Hindi:    "Main samajh gaya. Kya aap thoda aur bata sakte hain ki aap kya dhundh rahe hain?",
		core.Hinglish: "I understand. Thoda aur batayiye aap kya dhundh rahe hain?",
	}
)

// Stage templates. Entries with %s take extracted knowledge or the company
// name as noted.
var (
	introWithKnowledge = phrases{
		core.Hindi:    "Dhanyawad! Main aapko batata hun: %s Aur jaanna chahenge?",
		core.Hinglish: "Thank you! Here's what we offer: %s Want to know more?",
		core.English:  "Great! Let me share: %s Would you like more details?",
	}
	introCompany = phrases{
		core.Hindi:    "%s comprehensive solutions provide karta hai. Aapko kis service ke baare mein jaanna hai?",
		core.Hinglish: "%s comprehensive solutions provide karta hai. What would you like to know?",
		core.English:  "%s provides comprehensive solutions. What would you like to know?",
	}
	needsPricing = phrases{
		core.Hindi:    "Pricing aapke requirements par depend karti hai. Aap kitne users ke liye solution chahte hain?",
		core.Hinglish: "Pricing aapke requirements par depend karti hai. How many users ke liye chahiye?",
		core.English:  "Our pricing depends on your requirements. How many users would you need this for?",
	}
	needsServicesKnowledge = phrases{
		core.Hindi:    "Bilkul! %s Aapki specific need kya hai?",
		core.Hinglish: "Absolutely! %s Aapki specific need kya hai?",
		core.English:  "Absolutely! %s What's your specific need?",
	}
	needsServices = phrases{
		core.Hindi:    "Hum cloud, hosting aur support services dete hain. Aapko kismein interest hai?",
		core.Hinglish: "We offer cloud, hosting, aur support services. Aapko kismein interest hai?",
		core.English:  "We offer cloud, hosting, and support services. What interests you?",
	}
	pitchKnowledge = phrases{
		core.Hindi:    "Perfect! %s Kya aap demo dekhna chahenge?",
		core.Hinglish: "Perfect! %s Demo dekhna chahenge?",
		core.English:  "Perfect! %s Would you like a demo?",
	}
	pitch = phrases{
		core.Hindi:    "Hamara solution aapke costs mein 30-40% bachat kar sakta hai. Aur jaanna chahenge?",
		core.Hinglish: "Hamara solution aapko 30-40% cost save kara sakta hai. Interested in learning more?",
		core.English:  "Our solution can save you 30-40% on costs. Interested in learning more?",
	}
	objectionConcern = phrases{
		core.Hindi:    "Main samajh sakta hun. Kya main specific details share kar sakta hun?",
		core.Hinglish: "Main samajh sakta hun. Can I share some specific details?",
		core.English:  "I understand your concern. Can I share specific details?",
	}
	objectionOpen = phrases{
		core.Hindi:    "Kya aapke koi aur sawal hain?",
		core.Hinglish: "Koi aur questions hain aapke?",
		core.English:  "Do you have any other questions?",
	}
	closingAccepted = phrases{
		core.Hindi:    "Bahut accha! Main aapko specialist se connect kar raha hun.",
		core.Hinglish: "Bahut accha! Let me connect you with our specialist.",
		core.English:  "Excellent! Let me connect you with our specialist.",
	}
	closingDeclined = phrases{
		core.Hindi:    "Koi baat nahi. Kya hum aapko baad mein call karein?",
		core.Hinglish: "No problem. Kya hum aapko baad mein call back karein?",
		core.English:  "No problem. Would you like us to call you back later?",
	}
	escalating = phrases{
		core.Hindi:    "Main aapko abhi consultant se connect kar raha hun. Dhanyawad!",
		core.Hinglish: "Main aapko abhi consultant se connect kar raha hun. Thank you!",
		core.English:  "Connecting you with our consultant now. Thank you!",
	}
	defaultCompany = phrases{
		core.Hindi:    "hamari company",
		core.Hinglish: "hamari company",
		core.English:  "our company",
	}
)

// Greeting renders the persona's opening line.
func Greeting(persona core.Persona, lang core.Language, company string) string {
	if company == "" {
		company = defaultCompany.in(lang)
	}
	return fmt.Sprintf(greetings.get(persona, lang), company)
}

// Goodbye renders the persona's farewell.
func Goodbye(persona core.Persona, lang core.Language) string {
	return goodbyes.get(persona, lang)
}

// AnswerIntro is the persona's lead-in for knowledge-grounded answers.
func AnswerIntro(persona core.Persona, lang core.Language) string {
	return answerIntros.get(persona, lang)
}
