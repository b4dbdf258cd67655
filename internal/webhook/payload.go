package webhook

import (
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	testTitle   = "DiscordLogger Webhook Test"
	testColor   = 5814783
	testSiteURL = "https://discordlogger.godtiergamers.xyz"
	testLogoURL = "https://files.godtiergamers.xyz/DiscordLogger-Logo-removebg.png"

	testDescription = "Hello, this is a test of your webhook to confirm if it works, if you are seeing this message, it worked.\n\n" +
		"If you did not request a webhook test, confirm with other members of your server if they created a webhook or used an already existing webhook URL, " +
		"if nobody in your server requested this, reset/delete the webhook URL"
)

// TestPayload is the fixed webhook test message stamped with now. Content and
// attachments are left out of the body; Discord reads a missing field the same
// as content null and an empty attachment list.
func TestPayload(now time.Time) *discordgo.WebhookParams {
	return &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       testTitle,
				Description: testDescription,
				URL:         testSiteURL,
				Color:       testColor,
				Timestamp:   now.UTC().Format(time.RFC3339),
				Author: &discordgo.MessageEmbedAuthor{
					Name:    testTitle,
					URL:     testSiteURL,
					IconURL: testLogoURL,
				},
				Footer: &discordgo.MessageEmbedFooter{
					Text:    testTitle,
					IconURL: testLogoURL,
				},
				Thumbnail: &discordgo.MessageEmbedThumbnail{
					URL: testLogoURL,
				},
			},
		},
	}
}
