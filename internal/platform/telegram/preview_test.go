package telegram

import (
	"fmt"
	"strings"
	"time"
)

var previewBase = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// previewMessage renders one message block the way the web preview does.
func previewMessage(channel string, id int, inner string) string {
	date := previewBase.Add(time.Duration(id) * time.Minute).Format("2006-01-02T15:04:05+00:00")
	return fmt.Sprintf(`<div class="tgme_widget_message_wrap js-widget_message_wrap">
<div class="tgme_widget_message text_not_supported_wrap js-widget_message" data-post="%s/%d">
%s
<div class="tgme_widget_message_footer"><div class="tgme_widget_message_info">
<span class="tgme_widget_message_views">1.2K</span>
<a class="tgme_widget_message_date" href="https://t.me/%s/%d"><time datetime="%s" class="time">12:00</time></a>
</div></div>
</div></div>`, channel, id, inner, channel, id, date)
}

func previewPageHTML(channel string, messages ...string) string {
	return `<!DOCTYPE html><html><body>
<div class="tgme_channel_info">
<div class="tgme_channel_info_header">
<div class="tgme_channel_info_header_title"><span dir="auto">Starter News</span></div>
<div class="tgme_channel_info_header_username"><a href="https://t.me/` + channel + `">@` + channel + `</a></div>
</div>
<div class="tgme_channel_info_description">Daily news digest</div>
<div class="tgme_channel_info_counters">
<div class="tgme_channel_info_counter"><span class="counter_value">12.5K</span> <span class="counter_type">subscribers</span></div>
<div class="tgme_channel_info_counter"><span class="counter_value">900</span> <span class="counter_type">photos</span></div>
</div>
</div>
<section class="tgme_channel_history js-message_history">` + strings.Join(messages, "\n") + `</section>
</body></html>`
}
