// Package websub implements the PubSubHubbub surface: the Atom feed codec,
// the outbound hub client, the callback HTTP handler, the push pipeline and
// the subscription lifecycle.
package websub

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// atomFeed mirrors the two shapes YouTube delivers: a new-content entry or a
// tombstone for a retracted video.
type atomFeed struct {
	XMLName xml.Name      `xml:"http://www.w3.org/2005/Atom feed"`
	Entry   *atomEntry    `xml:"entry"`
	Deleted *deletedEntry `xml:"http://purl.org/atompub/tombstones/1.0 deleted-entry"`
}

type atomEntry struct {
	VideoID   string    `xml:"http://www.youtube.com/xml/schemas/2015 videoId"`
	ChannelID string    `xml:"http://www.youtube.com/xml/schemas/2015 channelId"`
	Title     string    `xml:"title"`
	Published time.Time `xml:"published"`
	Updated   time.Time `xml:"updated"`
}

type deletedEntry struct {
	Ref  string    `xml:"ref,attr"`
	When time.Time `xml:"when,attr"`
}

// FeedEvent is a decoded feed notification. Exactly one of Entry or Deleted
// is set.
type FeedEvent struct {
	Entry   *EntryEvent
	Deleted *DeletedEvent
}

// EntryEvent is a new-content ping for a video.
type EntryEvent struct {
	VideoID   string
	ChannelID string
	Title     string
	Published time.Time
}

// DeletedEvent marks a video retracted upstream.
type DeletedEvent struct {
	VideoID string
	When    time.Time
}

// ParseFeed decodes an Atom feed body into a FeedEvent.
func ParseFeed(body []byte) (*FeedEvent, error) {
	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("unmarshal atom feed: %w", err)
	}

	if feed.Deleted != nil {
		// The ref has the form "yt:video:VIDEOID".
		parts := strings.Split(feed.Deleted.Ref, ":")
		videoID := parts[len(parts)-1]
		if videoID == "" {
			return nil, fmt.Errorf("deleted-entry missing video reference")
		}
		return &FeedEvent{
			Deleted: &DeletedEvent{
				VideoID: videoID,
				When:    feed.Deleted.When,
			},
		}, nil
	}

	if feed.Entry == nil {
		return nil, fmt.Errorf("atom feed missing entry element")
	}
	if feed.Entry.VideoID == "" {
		return nil, fmt.Errorf("atom entry missing video ID")
	}
	if feed.Entry.ChannelID == "" {
		return nil, fmt.Errorf("atom entry missing channel ID")
	}

	return &FeedEvent{
		Entry: &EntryEvent{
			VideoID:   feed.Entry.VideoID,
			ChannelID: feed.Entry.ChannelID,
			Title:     feed.Entry.Title,
			Published: feed.Entry.Published,
		},
	}, nil
}
