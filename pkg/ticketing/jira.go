package ticketing

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jira "github.com/andygrunwald/go-jira"
	"golang.org/x/time/rate"
)

// requesterLabelPrefix marks the end user that opened a ticket. The ownership
// check in GetTicket is built on this label.
const requesterLabelPrefix = "requester-"

// maxAttachmentDownload bounds attachment downloads.
const maxAttachmentDownload = 8 << 20

// jiraCommentCreated is the timestamp layout Jira uses on comments.
const jiraCommentCreated = "2006-01-02T15:04:05.000-0700"

// JiraConfig is the configuration for one Jira-backed adapter.
type JiraConfig struct {
	BaseURL    string
	Email      string
	APIToken   string
	ProjectKey string

	// IssueType is the issue type created for tickets. Defaults to Task.
	IssueType string
}

// JiraAdapter implements Adapter against a Jira instance. Outbound calls are
// throttled with a per-adapter limiter so one tenant's burst cannot trip the
// tracker's rate limits for everyone sharing an instance.
type JiraAdapter struct {
	client     *jira.Client
	httpClient *http.Client
	project    string
	issueType  string
	limiter    *rate.Limiter
}

// NewJiraAdapter creates an adapter for the given Jira instance.
func NewJiraAdapter(cfg JiraConfig) (*JiraAdapter, error) {
	if cfg.BaseURL == "" || cfg.Email == "" || cfg.APIToken == "" || cfg.ProjectKey == "" {
		return nil, fmt.Errorf("incomplete jira configuration")
	}

	tp := jira.BasicAuthTransport{
		Username: cfg.Email,
		Password: cfg.APIToken,
	}

	httpClient := tp.Client()
	client, err := jira.NewClient(httpClient, cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("error creating jira client: %w", err)
	}

	issueType := cfg.IssueType
	if issueType == "" {
		issueType = "Task"
	}

	return &JiraAdapter{
		client:     client,
		httpClient: httpClient,
		project:    cfg.ProjectKey,
		issueType:  issueType,
		limiter:    rate.NewLimiter(rate.Limit(5), 10),
	}, nil
}

// RequesterLabel is the label recording the ticket's owning end user.
func RequesterLabel(endUserID string) string {
	return requesterLabelPrefix + endUserID
}

func (j *JiraAdapter) CreateTicket(ctx context.Context, req CreateRequest) (string, error) {
	if err := j.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("error waiting for rate limiter: %w", err)
	}

	labels := append([]string{}, req.Labels...)
	labels = append(labels, RequesterLabel(req.Requester.EndUserID))

	description := req.Description
	if req.Requester.Username != "" {
		description += fmt.Sprintf("\n\n_Opened by %s via the support bot._", req.Requester.Username)
	}

	issue := &jira.Issue{
		Fields: &jira.IssueFields{
			Project:     jira.Project{Key: j.project},
			Type:        jira.IssueType{Name: j.issueType},
			Summary:     req.Summary,
			Description: description,
			Labels:      labels,
		},
	}
	if req.Priority != "" {
		issue.Fields.Priority = &jira.Priority{Name: req.Priority}
	}

	created, _, err := j.client.Issue.CreateWithContext(ctx, issue)
	if err != nil {
		return "", fmt.Errorf("error creating issue: %w", err)
	}
	return created.Key, nil
}

func (j *JiraAdapter) AddComment(ctx context.Context, ticketID, message string, requester Requester) error {
	if err := j.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("error waiting for rate limiter: %w", err)
	}

	body := message
	if requester.Username != "" {
		body = fmt.Sprintf("*%s:* %s", requester.Username, message)
	}

	if _, _, err := j.client.Issue.AddCommentWithContext(ctx, ticketID, &jira.Comment{Body: body}); err != nil {
		return fmt.Errorf("error adding comment to %s: %w", ticketID, err)
	}
	return nil
}

func (j *JiraAdapter) AssignTicket(ctx context.Context, ticketID, providerAccountID string) error {
	if err := j.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("error waiting for rate limiter: %w", err)
	}

	if _, err := j.client.Issue.UpdateAssigneeWithContext(ctx, ticketID, &jira.User{AccountID: providerAccountID}); err != nil {
		return fmt.Errorf("error assigning %s: %w", ticketID, err)
	}
	return nil
}

func (j *JiraAdapter) TransitionTicket(ctx context.Context, ticketID, targetStateName string) error {
	if err := j.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("error waiting for rate limiter: %w", err)
	}

	transitions, _, err := j.client.Issue.GetTransitionsWithContext(ctx, ticketID)
	if err != nil {
		return fmt.Errorf("error getting transitions for %s: %w", ticketID, err)
	}

	for _, t := range transitions {
		if !strings.EqualFold(t.Name, targetStateName) && !strings.EqualFold(t.To.Name, targetStateName) {
			continue
		}
		if _, err := j.client.Issue.DoTransitionWithContext(ctx, ticketID, t.ID); err != nil {
			return fmt.Errorf("error transitioning %s to %s: %w", ticketID, targetStateName, err)
		}
		return nil
	}
	return fmt.Errorf("no transition to %q available on %s", targetStateName, ticketID)
}

func (j *JiraAdapter) GetTicket(ctx context.Context, ticketID, requestingEndUserID string) (*Ticket, error) {
	if err := j.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("error waiting for rate limiter: %w", err)
	}

	issue, resp, err := j.client.Issue.GetWithContext(ctx, ticketID, &jira.GetQueryOptions{
		Fields: "summary,description,status,priority,assignee,comment,attachment,labels,created",
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting issue %s: %w", ticketID, err)
	}
	if issue == nil || issue.Fields == nil {
		return nil, nil
	}

	// Ownership gate: an end user only ever sees their own tickets. Staff
	// paths pass an empty requesting user and skip this.
	if requestingEndUserID != "" && !hasLabel(issue.Fields.Labels, RequesterLabel(requestingEndUserID)) {
		return nil, nil
	}

	return projectIssue(issue), nil
}

func (j *JiraAdapter) AddAttachment(ctx context.Context, ticketID string, data []byte, filename, contentType string) error {
	if err := j.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("error waiting for rate limiter: %w", err)
	}

	if _, _, err := j.client.Issue.PostAttachmentWithContext(ctx, ticketID, bytes.NewReader(data), filename); err != nil {
		return fmt.Errorf("error attaching %s to %s: %w", filename, ticketID, err)
	}
	return nil
}

func (j *JiraAdapter) GetAttachmentBuffer(ctx context.Context, url string) ([]byte, error) {
	if err := j.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("error waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error building attachment request: %w", err)
	}

	resp, err := j.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	buf, err := io.ReadAll(io.LimitReader(resp.Body, maxAttachmentDownload))
	if err != nil {
		return nil, fmt.Errorf("error reading attachment: %w", err)
	}
	return buf, nil
}

func hasLabel(labels []string, want string) bool {
	for _, l := range labels {
		if l == want {
			return true
		}
	}
	return false
}

// projectIssue flattens a Jira issue into the provider-agnostic Ticket.
func projectIssue(issue *jira.Issue) *Ticket {
	f := issue.Fields

	t := &Ticket{
		ID:          issue.Key,
		Summary:     f.Summary,
		Description: f.Description,
		Created:     time.Time(f.Created),
	}

	if f.Status != nil {
		t.Status = f.Status.Name
		t.StatusCategory = f.Status.StatusCategory.Key
	}
	if f.Priority != nil {
		t.Priority = f.Priority.Name
	}
	if f.Assignee != nil {
		t.Assignee = f.Assignee.DisplayName
	}

	if f.Comments != nil {
		for _, c := range f.Comments.Comments {
			created, err := time.Parse(jiraCommentCreated, c.Created)
			if err != nil {
				created = time.Time{}
			}
			t.Comments = append(t.Comments, Comment{
				Author:  c.Author.DisplayName,
				Body:    c.Body,
				Created: created,
			})
		}
	}

	for _, a := range f.Attachments {
		t.Attachments = append(t.Attachments, Attachment{
			Filename: a.Filename,
			URL:      a.Content,
			Size:     a.Size,
		})
	}

	return t
}
