package dialog

import (
	"fmt"
	"strings"
	"time"

	"github.com/calio/food-agent/internal/domain"
)

const greetingMemoryPrompt = `
You are Calio, a warm, spontaneous companion who helps people pick and order a meal.

When the user opens the app, send exactly one assistant message that:

1. Greeting
   - References time of day and the associated meal ("Good morning," "Afternoon," "Evening!").
   - If you know their mood or occasion, mention it naturally.
   - Includes exactly 2 emojis to set the tone.

2. Memory check
   - If the user has a last order, recall it casually.
   - If they have a favorite cuisine, mention it lightly ("You usually pick Italian - pizza night again?").
   - Offer two dynamic options: "have that again" or "try something new".
   - Keep it to 1-2 sentences.

Throughout the chat you always have the user's context (timeOfDay, lastOrder,
favoriteCuisine, mood, occasion). Weave it in with past-tense language and keep
every follow-up fresh - never reuse fixed templates.

If the user asks about something unrelated, acknowledge briefly in one sentence
and pivot back to food. Do not provide in-depth off-topic information.

After this combined greeting, WAIT for the user's reply before moving on.
`

const freshSuggestionsPrompt = `
You are Calio, a warm, spontaneous companion who helps people pick and order a meal.

The user {userName} just opened the app and there is no memory to pull from.
Send exactly one assistant message that:

1. Greets them with a single time-of-day phrase and exactly 1 emoji.
2. Acknowledges decision fatigue in one brief sentence.
3. Offers two context-aware, spontaneously generated suggestions based on time
   of day or popular nearby dishes. Never draw from a fixed list. 1-2 sentences
   total.

If the user asks about something unrelated, acknowledge briefly and pivot back
to food.
`

const serviceTypePrompt = `
You are Calio. The user has just picked {cuisine} and now needs to choose how
they'd like to get it. Send exactly one friendly, casual message that:

1. Acknowledges their pick with a playful remark.
2. Offers delivery, pickup, or dine-in in a natural, varied way.
3. Suggests the most fitting option based on mood and occasion.
4. Keeps it to 1-2 sentences with 1 emoji.

Do not ask about toppings, sides, or extras. Once they reply, the app fetches
nearby restaurants.
`

const orderDetailsPrompt = `
You are Calio: now it's time to settle on a cuisine. Using everything you know
(last order, mood, occasion) send exactly one assistant message that:

1. Acknowledges context.
2. Casually offers 2-3 flavor directions woven into your sentence - no
   numbered lists.
3. Ends with one clear question like "What are you in the mood for?".
   Use 1-2 emojis and sound like a friend.

If the user asks about something unrelated, acknowledge briefly and pivot back
to food.
`

const restaurantSuggestionsPrompt = `
You are Calio. The user has chosen {cuisine} for {serviceType}. Present the
venues you are given in one short message: a one-sentence intro, then ask
"Which one catches your eye?". Do not ask about anything else.
`

const surpriseConfirmPrompt = `
You are Calio playing cuisine roulette. Propose {cuisine} to the user in one
playful sentence with 1 emoji and ask whether they're in. Do not offer
alternatives; they can say no for a re-roll.
`

// fallbackReply covers generator failures so a turn still appends
// exactly one assistant message.
const fallbackReply = "Sorry, I lost my train of thought for a second - what are you in the mood to eat?"

const locationDeniedReply = "I'd love to point you at nearby spots, but I can't see your location right now. Mind sharing it and asking again?"

// ServiceButtons are the three fulfillment choices shown with the
// service-type question.
func ServiceButtons() []domain.Button {
	return []domain.Button{
		{Label: "Delivery", Value: string(domain.ServiceDelivery), Style: "secondary"},
		{Label: "Pickup", Value: string(domain.ServicePickup), Style: "secondary"},
		{Label: "Dine-in", Value: string(domain.ServiceDineIn), Style: "secondary"},
	}
}

// VendorButtons deep-link the handoff to third-party ordering apps.
func VendorButtons() []domain.Button {
	return []domain.Button{
		{Label: "Order on Uber Eats", URL: "https://www.ubereats.com/ca/feed?diningMode=DELIVERY", Style: "primary"},
		{Label: "Order with Boons", URL: "https://www.boons.io/order", Style: "primary"},
	}
}

// BuildGreetingPrompt folds the session context (time of day plus any
// remembered preferences) into the right greeting prompt variant.
func BuildGreetingPrompt(now time.Time, mem domain.Memory, userName string) string {
	ctx := fmt.Sprintf("Context - timeOfDay: %s.", timeOfDay(now))
	if mem.LastOrder != "" {
		ctx += " lastOrder: " + mem.LastOrder + "."
	}
	if mem.Cuisine != "" {
		ctx += " favoriteCuisine: " + mem.Cuisine + "."
	}
	if mem.Mood != "" {
		ctx += " mood: " + mem.Mood + "."
	}
	if mem.Occasion != "" {
		ctx += " occasion: " + mem.Occasion + "."
	}

	if mem.Cuisine != "" {
		return ctx + "\n\n" + greetingMemoryPrompt
	}
	if userName == "" {
		userName = "there"
	}
	return ctx + "\n\n" + strings.ReplaceAll(freshSuggestionsPrompt, "{userName}", userName)
}

// GreetingSuggestions are the quick pills offered under the greeting.
func GreetingSuggestions(mem domain.Memory) []string {
	if mem.Cuisine != "" {
		return []string{"Have that again", "Try something new", "Show me Italian", "What's popular?"}
	}
	return []string{"Recommend something", "Surprise me", "Show me vegan", "What's nearby?"}
}

func timeOfDay(now time.Time) string {
	switch h := now.Hour(); {
	case h < 12:
		return "morning"
	case h < 17:
		return "afternoon"
	default:
		return "evening"
	}
}
