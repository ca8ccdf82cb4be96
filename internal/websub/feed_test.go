package websub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleEntryFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
  <link rel="hub" href="https://pubsubhubbub.appspot.com"/>
  <link rel="self" href="https://www.youtube.com/xml/feeds/videos.xml?channel_id=UCtest"/>
  <title>YouTube video feed</title>
  <updated>2025-06-01T12:00:00+00:00</updated>
  <entry>
    <id>yt:video:dQw4w9WgXcQ</id>
    <yt:videoId>dQw4w9WgXcQ</yt:videoId>
    <yt:channelId>UCuAXFkgsw1L7xaCfnd5JJOw</yt:channelId>
    <title>Never Gonna Give You Up</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=dQw4w9WgXcQ"/>
    <author>
      <name>Rick Astley</name>
      <uri>https://www.youtube.com/channel/UCuAXFkgsw1L7xaCfnd5JJOw</uri>
    </author>
    <published>2025-06-01T11:58:00+00:00</published>
    <updated>2025-06-01T12:00:00+00:00</updated>
  </entry>
</feed>`

const sampleDeletedFeed = `<?xml version="1.0"?>
<feed xmlns:at="http://purl.org/atompub/tombstones/1.0" xmlns="http://www.w3.org/2005/Atom">
  <at:deleted-entry ref="yt:video:dQw4w9WgXcQ" when="2025-06-01T13:00:00+00:00">
    <link href="https://www.youtube.com/watch?v=dQw4w9WgXcQ"/>
  </at:deleted-entry>
</feed>`

func TestParseFeed_Entry(t *testing.T) {
	t.Parallel()

	event, err := ParseFeed([]byte(sampleEntryFeed))
	require.NoError(t, err)
	require.NotNil(t, event.Entry)
	assert.Nil(t, event.Deleted)

	assert.Equal(t, "dQw4w9WgXcQ", event.Entry.VideoID)
	assert.Equal(t, "UCuAXFkgsw1L7xaCfnd5JJOw", event.Entry.ChannelID)
	assert.Equal(t, "Never Gonna Give You Up", event.Entry.Title)
	assert.Equal(t, time.Date(2025, 6, 1, 11, 58, 0, 0, time.UTC), event.Entry.Published.UTC())
}

func TestParseFeed_DeletedEntry(t *testing.T) {
	t.Parallel()

	event, err := ParseFeed([]byte(sampleDeletedFeed))
	require.NoError(t, err)
	require.NotNil(t, event.Deleted)
	assert.Nil(t, event.Entry)

	assert.Equal(t, "dQw4w9WgXcQ", event.Deleted.VideoID)
	assert.Equal(t, time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC), event.Deleted.When.UTC())
}

func TestParseFeed_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"not xml", "this is not xml"},
		{"empty feed", `<feed xmlns="http://www.w3.org/2005/Atom"><title>empty</title></feed>`},
		{
			"entry without video id",
			`<feed xmlns="http://www.w3.org/2005/Atom" xmlns:yt="http://www.youtube.com/xml/schemas/2015"><entry><yt:channelId>UCx</yt:channelId></entry></feed>`,
		},
		{
			"entry without channel id",
			`<feed xmlns="http://www.w3.org/2005/Atom" xmlns:yt="http://www.youtube.com/xml/schemas/2015"><entry><yt:videoId>abc</yt:videoId></entry></feed>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseFeed([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}
