package templates

import (
	"fmt"
	"html"
	"strings"
)

// DigestRow is one line of the top-referrers table in the weekly digest
type DigestRow struct {
	Name            string
	RankName        string
	DirectReferrals int64
	TeamSize        int64
}

// RenderWeeklyDigest generates the HTML for the weekly growth digest sent to
// the program admins
func RenderWeeklyDigest(newUsers, creditings int64, topReferrers []DigestRow) string {
	var rows strings.Builder
	for i, r := range topReferrers {
		rows.WriteString(fmt.Sprintf(`<tr>
        <td>%d</td>
        <td>%s</td>
        <td>%s</td>
        <td>%d</td>
        <td>%d</td>
      </tr>`, i+1, html.EscapeString(r.Name), html.EscapeString(r.RankName), r.DirectReferrals, r.TeamSize))
	}
	if len(topReferrers) == 0 {
		rows.WriteString(`<tr><td colspan="5">No referral activity this week.</td></tr>`)
	}

	body := fmt.Sprintf(`<p>Here is the referral program activity for the last 7 days.</p>

      <div class="stat-row">
        <div class="stat-box">
          <div class="stat-number">%d</div>
          <div class="stat-label">New members</div>
        </div>
        <div class="stat-box">
          <div class="stat-number">%d</div>
          <div class="stat-label">Successful referrals</div>
        </div>
      </div>

      <h3>Top referrers</h3>
      <table class="digest-table">
        <tr><th>#</th><th>Name</th><th>Rank</th><th>Direct</th><th>Team</th></tr>
        %s
      </table>`, newUsers, creditings, rows.String())

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>Weekly Referral Digest - TALOWA</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f4f4f7; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background: linear-gradient(135deg, #1a7a4c 0%%, #0f5132 100%%); padding: 40px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 24px; font-weight: 700; }
    .content { padding: 40px 30px; color: #1f2937; line-height: 1.6; font-size: 15px; }
    .stat-row { display: flex; gap: 16px; margin: 20px 0; }
    .stat-box { flex: 1; background: rgba(26, 122, 76, 0.08); border: 1px solid rgba(26, 122, 76, 0.25); border-radius: 12px; padding: 20px; text-align: center; }
    .stat-number { font-size: 28px; font-weight: 700; color: #0f5132; }
    .stat-label { font-size: 13px; color: #6b7280; }
    .digest-table { width: 100%%; border-collapse: collapse; font-size: 14px; }
    .digest-table th, .digest-table td { padding: 8px 10px; border-bottom: 1px solid rgba(0,0,0,0.08); text-align: left; }
    .digest-table th { color: #0f5132; }
    .footer { padding: 30px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid rgba(0,0,0,0.1); }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Weekly Referral Digest</h1>
    </div>
    <div class="content">
      %s
    </div>
    <div class="footer">
      <p>&copy; TALOWA | talowa.org</p>
    </div>
  </div>
</body>
</html>`, body)
}
