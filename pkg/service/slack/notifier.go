package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/interfaces"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// maxListedFailures caps the number of flagged contact IDs written in a report
const maxListedFailures = 10

// SyncNotifier reports contact sync problems to a Slack channel
type SyncNotifier struct {
	svc       Service
	channelID string
}

var _ interfaces.SyncNotifier = &SyncNotifier{}

func NewSyncNotifier(svc Service, channelID string) *SyncNotifier {
	return &SyncNotifier{
		svc:       svc,
		channelID: channelID,
	}
}

// NotifySync posts a summary of the pass. Nothing is posted when the pass
// succeeded without flagged contacts.
func (n *SyncNotifier) NotifySync(ctx context.Context, org *model.Org, result *model.SyncResult, syncErr error) error {
	if syncErr == nil && (result == nil || len(result.Failed) == 0) {
		return nil
	}

	blocks, text := BuildSyncReport(org, result, syncErr)
	if _, err := n.svc.PostMessage(ctx, n.channelID, blocks, text); err != nil {
		return goerr.Wrap(err, "failed to post sync report", goerr.V("org_id", org.ID))
	}
	return nil
}

// BuildSyncReport renders the Block Kit report and its fallback text
func BuildSyncReport(org *model.Org, result *model.SyncResult, syncErr error) ([]slack.Block, string) {
	name := org.Name
	if name == "" {
		name = string(org.ID)
	}

	var text string
	var body strings.Builder
	if syncErr != nil {
		text = fmt.Sprintf(":x: Contact sync failed for %s", name)
		fmt.Fprintf(&body, "*Error:* %s", syncErr.Error())
	} else {
		text = fmt.Sprintf(":warning: Contact sync for %s flagged %d contact(s)", name, len(result.Failed))
		fmt.Fprintf(&body, "*Created:* %d  *Updated:* %d  *Deleted:* %d  *Failed:* %d\n",
			len(result.Created), len(result.Updated), len(result.Deleted), len(result.Failed))

		for i, f := range result.Failed {
			if i == maxListedFailures {
				fmt.Fprintf(&body, "… and %d more\n", len(result.Failed)-maxListedFailures)
				break
			}
			fmt.Fprintf(&body, "• `%s` %s\n", f.ExternalID, f.Reason)
		}
	}

	blocks := []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, body.String(), false, false), nil, nil),
	}
	return blocks, text
}
