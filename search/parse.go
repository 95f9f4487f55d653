package search

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?s)```[a-zA-Z]*[ \t]*\n?(.*?)```")

// stripFences returns the body of the first markdown code fence in s. An
// answer that already starts with the array is returned as is.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		return s
	}
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// text accepts a JSON string, number or null as free text.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*t = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
	case len(b) > 0 && (b[0] == '-' || (b[0] >= '0' && b[0] <= '9')):
		*t = text(b)
	default:
		return fmt.Errorf("expected text, got %s", b)
	}
	return nil
}

type rawLead struct {
	Name        text `json:"name"`
	Type        text `json:"type"`
	Amount      text `json:"amount"`
	Deadline    text `json:"deadline"`
	Link        text `json:"link"`
	MatchReason text `json:"matchReason"`
}

var errNoLeads = errors.New("answer contained no leads")

func parseLeadType(s string) (LeadType, bool) {
	for _, lt := range []LeadType{LeadGrant, LeadLoan, LeadInvestor} {
		if strings.EqualFold(strings.TrimSpace(s), string(lt)) {
			return lt, true
		}
	}
	return "", false
}

// parseLeads decodes the AI answer into leads. The answer must be a JSON
// array, optionally wrapped in a code fence, and nothing else.
func parseLeads(answer string) ([]Lead, error) {
	body := stripFences(answer)
	if !strings.HasPrefix(body, "[") {
		return nil, errors.New("answer is not a JSON array")
	}
	dec := json.NewDecoder(strings.NewReader(body))
	var raw []rawLead
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode leads: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing content after lead array")
	}
	if len(raw) == 0 {
		return nil, errNoLeads
	}

	leads := make([]Lead, 0, len(raw))
	for i, r := range raw {
		name := strings.TrimSpace(string(r.Name))
		if name == "" {
			return nil, fmt.Errorf("lead %d: missing name", i)
		}
		lt, ok := parseLeadType(string(r.Type))
		if !ok {
			return nil, fmt.Errorf("lead %d: unknown type %q", i, r.Type)
		}
		leads = append(leads, Lead{
			Name:        name,
			Type:        lt,
			Amount:      strings.TrimSpace(string(r.Amount)),
			Deadline:    strings.TrimSpace(string(r.Deadline)),
			Link:        strings.TrimSpace(string(r.Link)),
			MatchReason: strings.TrimSpace(string(r.MatchReason)),
		})
	}
	return leads, nil
}
