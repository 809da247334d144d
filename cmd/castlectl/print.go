package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dokzlo13/castleos/internal/castleos"
	"github.com/dokzlo13/castleos/internal/ledger"
	"github.com/dokzlo13/castleos/internal/storage"
)

// printer renders listings as aligned columns.
type printer struct {
	w io.Writer
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

func (p *printer) table(header string, rows [][]string) error {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

func (p *printer) devices(devices []*castleos.Device) error {
	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		caps := make([]string, 0, 2)
		if d.CanChangeColor {
			caps = append(caps, "colour")
		}
		if d.CanChangeColorTemperature {
			caps = append(caps, fmt.Sprintf("ct %d-%d", d.ColourTemperatureMin, d.ColourTemperatureMax))
		}
		rows = append(rows, []string{
			d.ID, d.Name, d.Status,
			fmt.Sprintf("%g", d.Level),
			strings.Join(d.Groups, ","),
			strings.Join(caps, ","),
		})
	}
	return p.table("ID\tNAME\tSTATUS\tLEVEL\tGROUPS\tCAPABILITIES", rows)
}

func (p *printer) groups(groups []*castleos.Group) error {
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{g.ID, g.Name})
	}
	return p.table("ID\tNAME", rows)
}

func (p *printer) scenes(scenes []*castleos.Scene) error {
	rows := make([][]string, 0, len(scenes))
	for _, s := range scenes {
		rows = append(rows, []string{
			s.ID, s.Name,
			fmt.Sprint(len(s.Devices)),
			fmt.Sprint(len(s.Groups)),
			fmt.Sprint(len(s.Scenes)),
			fmt.Sprint(len(s.Scripts)),
		})
	}
	return p.table("ID\tNAME\tDEVICES\tGROUPS\tSCENES\tSCRIPTS", rows)
}

func (p *printer) history(entries []*ledger.Entry) error {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Timestamp.Local().Format(time.DateTime),
			e.Command, e.Target, string(e.Outcome), e.Error,
		})
	}
	return p.table("TIME\tCOMMAND\tTARGET\tOUTCOME\tERROR", rows)
}

func (p *printer) sessions(sessions []storage.StoredToken) error {
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		obtained := "-"
		if !s.ObtainedAt.IsZero() {
			obtained = s.ObtainedAt.Local().Format(time.DateTime)
		}
		rows = append(rows, []string{s.Host, s.Username, obtained})
	}
	return p.table("HOST\tUSER\tOBTAINED", rows)
}
