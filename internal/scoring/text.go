package scoring

import "github.com/mventris/heartlens/internal/domain"

const (
	recommendationCritical = "This relationship shows significant red flags that warrant serious consideration. The patterns identified suggest potential for emotional harm or incompatibility. It's important to prioritize your wellbeing and consider whether this relationship serves your best interests."

	recommendationHigh = "There are notable concerns in this relationship that deserve attention and open communication. While not necessarily deal-breakers, these issues could escalate if left unaddressed. Consider having honest conversations about these patterns and observe whether meaningful change occurs."

	recommendationModerate = "Your relationship shows some areas of concern, but these are common challenges that many couples face. With awareness and effort from both partners, these issues can be addressed constructively. Focus on strengthening communication and maintaining healthy boundaries."

	recommendationHealthy = "Based on our conversation, your relationship appears to have a relatively healthy foundation. While no relationship is perfect, the patterns discussed suggest mutual respect, good communication, and emotional maturity. Continue nurturing these positive dynamics."
)

// criticalSteps are appended when any flag has critical severity.
var criticalSteps = []string{
	"Consider reaching out to a licensed therapist or counselor who specializes in relationships",
	"Establish clear boundaries and communicate your non-negotiables",
	"Create a safety plan if you feel emotionally or physically unsafe",
}

// categorySteps holds the two fixed suggestions per category.
var categorySteps = map[domain.Category][]string{
	domain.CategoryCommunication: {
		"Practice active listening and 'I' statements to express feelings without blame",
		"Schedule regular check-ins to discuss relationship health openly",
	},
	domain.CategoryTrust: {
		"Identify specific trust issues and discuss them transparently with your partner",
		"Observe whether your partner's actions align with their words over time",
	},
	domain.CategoryEmotionalIntelligence: {
		"Notice how your partner responds to your emotions and needs",
		"Consider whether emotional validation is reciprocal in your relationship",
	},
	domain.CategoryFutureAlignment: {
		"Have honest conversations about long-term goals and values",
		"Discuss non-negotiables like children, location, career, and lifestyle preferences",
	},
}

// healthySteps are the fallback when no flags were detected at all.
var healthySteps = []string{
	"Continue fostering open communication and emotional connection",
	"Regularly check in with yourself about your happiness and fulfillment",
	"Celebrate the positive aspects of your relationship",
}
