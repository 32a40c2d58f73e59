package ses

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"vanik/internal/port"
)

type sesSender struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
}

// NewSESSender creates a new SES-backed EmailSender.
func NewSESSender(region, fromAddress, fromName string) (port.EmailSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	client := sesv2.NewFromConfig(cfg)
	return &sesSender{
		client:      client,
		fromAddress: fromAddress,
		fromName:    fromName,
	}, nil
}

func (s *sesSender) SendBillFlaggedEmail(ctx context.Context, toEmail, toName string, notice port.BillFlagNotice) error {
	subject := fmt.Sprintf("Purchase bill %s flagged for HSN review", notice.BillNumber)
	htmlBody := buildBillFlaggedHTML(toName, notice)
	textBody := fmt.Sprintf(
		"Hi %s,\n\nPurchase bill %s from %s was flagged during approval: the HSN code or GST rate declared by the vendor does not match your catalog for the following lines:\n\n%s\n\nCorrect the catalog or the bill lines, then re-run approval.\n\nVanik",
		toName, notice.BillNumber, notice.VendorName, strings.Join(notice.MismatchedLines, "\n"),
	)

	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func buildBillFlaggedHTML(name string, notice port.BillFlagNotice) string {
	var lines strings.Builder
	for _, l := range notice.MismatchedLines {
		fmt.Fprintf(&lines, "    <li>%s</li>\n", l)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Purchase bill flagged for HSN review</h2>
  <p>Hi %s,</p>
  <p>Purchase bill <strong>%s</strong> from <strong>%s</strong> was flagged during approval. The HSN code or GST rate declared by the vendor does not match your catalog for:</p>
  <ul style="color: #333;">
%s  </ul>
  <p>Correct the catalog or the bill lines, then re-run approval.</p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">Vanik - Retail Back Office</p>
</body>
</html>`, name, notice.BillNumber, notice.VendorName, lines.String())
}
