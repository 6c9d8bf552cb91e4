package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/jobboard/internal/app"
	"github.com/aussiebroadwan/jobboard/pkg/boardsdk"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// View is something a command prints. Data is what json and yaml output
// marshal; Header and Rows drive table and text output.
type View struct {
	Header []string
	Rows   [][]string
	Data   any
}

// Printer writes views and messages in the configured format.
type Printer struct {
	out    io.Writer
	errOut io.Writer
	format string
	colors bool
}

// NewPrinter returns a printer for format; colors only affects messages.
func NewPrinter(out, errOut io.Writer, format string, colors bool) *Printer {
	return &Printer{out: out, errOut: errOut, format: format, colors: colors}
}

// Print renders v.
func (p *Printer) Print(v View) error {
	switch p.format {
	case app.OutputJSON:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v.Data)
	case app.OutputYAML:
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(v.Data); err != nil {
			return err
		}
		return enc.Close()
	case app.OutputText:
		for _, row := range v.Rows {
			if _, err := fmt.Fprintln(p.out, strings.Join(row, "\t")); err != nil {
				return err
			}
		}
		return nil
	default:
		return p.table(v)
	}
}

func (p *Printer) table(v View) error {
	if len(v.Rows) == 0 {
		_, err := fmt.Fprintln(p.out, "No data to display")
		return err
	}

	table := tablewriter.NewWriter(p.out)
	table.SetHeader(v.Header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetRowLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(v.Rows)
	table.Render()
	return nil
}

// Message prints a plain line to stdout. Structured formats stay quiet so
// their output remains parseable.
func (p *Printer) Message(format string, args ...any) {
	if p.structured() {
		return
	}
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Success prints a confirmation.
func (p *Printer) Success(format string, args ...any) {
	if p.structured() {
		return
	}
	p.line(p.out, color.FgGreen, "", format, args...)
}

// Info prints a hint.
func (p *Printer) Info(format string, args ...any) {
	if p.structured() {
		return
	}
	p.line(p.out, color.FgBlue, "", format, args...)
}

// Warning prints to stderr; rate limiting is reported this way.
func (p *Printer) Warning(format string, args ...any) {
	p.line(p.errOut, color.FgYellow, "Warning: ", format, args...)
}

// Error prints to stderr.
func (p *Printer) Error(format string, args ...any) {
	p.line(p.errOut, color.FgRed, "Error: ", format, args...)
}

func (p *Printer) line(w io.Writer, attr color.Attribute, prefix, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.colors {
		_, _ = color.New(attr).Fprintln(w, msg)
		return
	}
	fmt.Fprintln(w, prefix+msg)
}

func (p *Printer) structured() bool {
	return p.format == app.OutputJSON || p.format == app.OutputYAML
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// userView shows one profile as field/value rows.
func userView(u *boardsdk.UserProfile) View {
	rows := [][]string{
		{"ID", u.ID},
		{"Username", u.Username},
	}
	if u.Name != "" {
		rows = append(rows, []string{"Name", u.Name})
	}
	if u.Email != "" {
		rows = append(rows, []string{"Email", u.Email}, []string{"Email verified", yesNo(u.EmailVerified)})
	}
	rows = append(rows, []string{"MFA", yesNo(u.MFAEnabled)})
	if providers := u.LinkedProviders(); len(providers) > 0 {
		names := make([]string, len(providers))
		for i, p := range providers {
			names[i] = string(p)
		}
		rows = append(rows, []string{"Linked", strings.Join(names, ", ")})
	}
	return View{Header: []string{"Field", "Value"}, Rows: rows, Data: u}
}

func salary(s *float64) string {
	if s == nil {
		return ""
	}
	return strconv.FormatFloat(*s, 'f', -1, 64)
}

func jobsView(list []boardsdk.Job) View {
	rows := make([][]string, 0, len(list))
	for _, j := range list {
		rows = append(rows, []string{
			j.ID, j.Title, j.Location, string(j.EmploymentType), salary(j.Salary), yesNo(j.IsActive), j.CreatedBy.Username,
		})
	}
	if list == nil {
		list = []boardsdk.Job{}
	}
	return View{
		Header: []string{"ID", "Title", "Location", "Type", "Salary", "Active", "Posted by"},
		Rows:   rows,
		Data:   list,
	}
}

func jobView(j *boardsdk.Job) View {
	rows := [][]string{
		{"ID", j.ID},
		{"Title", j.Title},
		{"Location", j.Location},
		{"Type", string(j.EmploymentType)},
		{"Salary", salary(j.Salary)},
		{"Active", yesNo(j.IsActive)},
		{"Posted by", j.CreatedBy.Username},
	}
	if !j.CreatedAt.IsZero() {
		rows = append(rows, []string{"Created", j.CreatedAt.Format(time.RFC3339)})
	}
	if j.Description != "" {
		rows = append(rows, []string{"Description", j.Description})
	}
	return View{Header: []string{"Field", "Value"}, Rows: rows, Data: j}
}

// statusInfo is what `status` reports.
type statusInfo struct {
	API       string        `json:"api" yaml:"api"`
	Phase     string        `json:"phase" yaml:"phase"`
	Username  string        `json:"username,omitempty" yaml:"username,omitempty"`
	Token     bool          `json:"accessToken" yaml:"accessToken"`
	ExpiresAt *time.Time    `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
	Remaining time.Duration `json:"-" yaml:"-"`
}

func statusView(s statusInfo) View {
	rows := [][]string{
		{"API", s.API},
		{"Session", s.Phase},
		{"Access token", yesNo(s.Token)},
	}
	if s.Username != "" {
		rows = append(rows, []string{"Username", s.Username})
	}
	if s.ExpiresAt != nil {
		left := "expired"
		if s.Remaining > 0 {
			left = s.Remaining.Round(time.Second).String()
		}
		rows = append(rows, []string{"Expires", s.ExpiresAt.Format(time.RFC3339) + " (" + left + ")"})
	}
	return View{Header: []string{"Field", "Value"}, Rows: rows, Data: s}
}

func codesView(codes []string) View {
	rows := make([][]string, len(codes))
	for i, c := range codes {
		rows[i] = []string{strconv.Itoa(i + 1), c}
	}
	return View{Header: []string{"#", "Backup code"}, Rows: rows, Data: map[string][]string{"backupCodes": codes}}
}
