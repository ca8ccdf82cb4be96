package notify

import "github.com/eslym/dcyt-bot-v2/internal/db/models"

// Locale carries the built-in default notification templates and the video
// type labels for one language.
type Locale struct {
	Notification map[models.NotificationKind]string
	TypeLabel    map[models.VideoType]string
}

// DefaultLanguage is used when a guild has no language set or names an
// unknown one.
const DefaultLanguage = "en"

var locales = map[string]*Locale{
	"en": {
		Notification: map[models.NotificationKind]string{
			models.NotifyPublish:    "**{{channel}}** published a new {{type}}!\n**{{title}}**\n{{{url}}}",
			models.NotifySchedule:   "**{{channel}}** scheduled a {{type}} for <t:{{timestamp}}:F>!\n**{{title}}**\n{{{url}}}",
			models.NotifyReschedule: "**{{channel}}** moved the {{type}} to <t:{{timestamp}}:F>.\n**{{title}}**\n{{{url}}}",
			models.NotifyUpcoming:   "**{{channel}}** is going live <t:{{timestamp}}:R>!\n**{{title}}**\n{{{url}}}",
			models.NotifyLive:       "**{{channel}}** is now live!\n**{{title}}**\n{{{url}}}",
		},
		TypeLabel: map[models.VideoType]string{
			models.VideoTypeVideo:    "video",
			models.VideoTypeLive:     "live stream",
			models.VideoTypePremiere: "premiere",
		},
	},
	"zh-CN": {
		Notification: map[models.NotificationKind]string{
			models.NotifyPublish:    "**{{channel}}** 发布了新的{{type}}！\n**{{title}}**\n{{{url}}}",
			models.NotifySchedule:   "**{{channel}}** 预定了{{type}}，时间为 <t:{{timestamp}}:F>！\n**{{title}}**\n{{{url}}}",
			models.NotifyReschedule: "**{{channel}}** 将{{type}}改到了 <t:{{timestamp}}:F>。\n**{{title}}**\n{{{url}}}",
			models.NotifyUpcoming:   "**{{channel}}** 即将开播 <t:{{timestamp}}:R>！\n**{{title}}**\n{{{url}}}",
			models.NotifyLive:       "**{{channel}}** 正在直播！\n**{{title}}**\n{{{url}}}",
		},
		TypeLabel: map[models.VideoType]string{
			models.VideoTypeVideo:    "视频",
			models.VideoTypeLive:     "直播",
			models.VideoTypePremiere: "首映",
		},
	},
	"zh-TW": {
		Notification: map[models.NotificationKind]string{
			models.NotifyPublish:    "**{{channel}}** 發布了新的{{type}}！\n**{{title}}**\n{{{url}}}",
			models.NotifySchedule:   "**{{channel}}** 預定了{{type}}，時間為 <t:{{timestamp}}:F>！\n**{{title}}**\n{{{url}}}",
			models.NotifyReschedule: "**{{channel}}** 將{{type}}改到了 <t:{{timestamp}}:F>。\n**{{title}}**\n{{{url}}}",
			models.NotifyUpcoming:   "**{{channel}}** 即將開播 <t:{{timestamp}}:R>！\n**{{title}}**\n{{{url}}}",
			models.NotifyLive:       "**{{channel}}** 正在直播！\n**{{title}}**\n{{{url}}}",
		},
		TypeLabel: map[models.VideoType]string{
			models.VideoTypeVideo:    "影片",
			models.VideoTypeLive:     "直播",
			models.VideoTypePremiere: "首映",
		},
	},
}

// LocaleFor returns the locale for the given language code, falling back to
// English for unknown or absent codes.
func LocaleFor(language *string) *Locale {
	if language != nil {
		if locale, ok := locales[*language]; ok {
			return locale
		}
	}
	return locales[DefaultLanguage]
}
