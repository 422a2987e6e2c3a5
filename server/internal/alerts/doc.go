// Package alerts evaluates rules against each finished build and delivers
// webhook notifications to Teams, Slack, or generic HTTP targets when a rule
// starts or stops firing.
package alerts
