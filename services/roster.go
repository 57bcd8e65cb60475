package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"hackathonwallah/logger"
	"hackathonwallah/models"

	"github.com/xuri/excelize/v2"
)

const rosterSheet = "Participants"

var rosterHeaders = []interface{}{
	"Registered At", "Team", "Leader", "Email", "Phone", "College", "Members", "Payment Status", "Submission URL",
}

// RosterService exports a hackathon's participants for organisers.
type RosterService struct {
	hackathons   HackathonStore
	participants ParticipantStore
}

func NewRosterService(hackathons HackathonStore, participants ParticipantStore) *RosterService {
	return &RosterService{hackathons: hackathons, participants: participants}
}

// Export returns the roster workbook and a file name for it.
func (s *RosterService) Export(ctx context.Context, hackathonID string) ([]byte, string, error) {
	h, err := s.hackathons.GetByID(ctx, hackathonID)
	if err != nil {
		return nil, "", err
	}
	entries, err := s.participants.ListByHackathon(ctx, h.ID)
	if err != nil {
		return nil, "", err
	}
	data, err := BuildRoster(entries)
	if err != nil {
		return nil, "", err
	}
	logger.Info("Roster for %s exported with %d participant(s)", h.Slug, len(entries))
	return data, h.Slug + "-participants.xlsx", nil
}

// BuildRoster writes entries to a single-sheet xlsx workbook.
func BuildRoster(entries []models.RosterEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rosterSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(rosterSheet, "A1", &rosterHeaders); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(rosterSheet, "A1", "I1", style)
	}
	_ = f.SetColWidth(rosterSheet, "A", "I", 22)

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			e.Participant.RegisteredAt.In(istLocation()).Format("2006-01-02 15:04"),
			e.Participant.TeamName,
			e.Leader.Name,
			e.Leader.Email,
			e.Leader.Phone,
			e.Leader.CollegeName,
			memberList(e.Participant.TeamMembers),
			string(e.Participant.PaymentStatus),
			e.Participant.SubmissionURL,
		}
		if err := f.SetSheetRow(rosterSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

func memberList(members models.TeamMembers) string {
	names := make([]string, 0, len(members))
	for _, m := range members {
		if m.Email != "" {
			names = append(names, fmt.Sprintf("%s <%s>", m.Name, m.Email))
		} else {
			names = append(names, m.Name)
		}
	}
	return strings.Join(names, "; ")
}
