// Package notifier delivers alert text to a destination.
//
// TelegramNotifier posts through the Bot API client; DryRunNotifier prints the
// request it would have made and touches no network.
package notifier
