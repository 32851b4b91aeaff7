// Package telegram provides a minimal Telegram Bot API client for sending alerts.
//
// The client posts a JSON sendMessage request with parse_mode=HTML and
// classifies failures into network, response-parse and API errors (see Kind).
// Authentication requires a bot token (from @BotFather) and chat ID.
package telegram
