package storage

// Well-known setting keys.
const (
	SettingWelcomeMessage   = "welcome_message"
	SettingSubscribeMessage = "subscribe_message"
)

// DefaultSettings are seeded at startup for any key that has no row yet.
// Values are Telegram HTML.
var DefaultSettings = map[string]string{
	SettingWelcomeMessage: "👋 <b>Welcome to the video download bot.</b>\n\n" +
		"Send me a link to any video from YouTube, TikTok, Instagram and more, and I will download it for you.",
	SettingSubscribeMessage: "🚫 <b>Sorry, you need to join the following channels before using the bot:</b>",
}
