package gsm

import (
	"fmt"
	"strings"

	"i4.energy/across/gsmat/at"
)

// Type of address octets of a phonebook number.
const (
	addrUnknown       = 129
	addrInternational = 145
)

func buildPBWrite(edit bool) func(any) (*routine, error) {
	return func(params any) (*routine, error) {
		p, err := paramsAs[PhonebookParams](params)
		if err != nil {
			return nil, err
		}
		if edit && p.Index < 1 {
			return nil, invalid("index %d", p.Index)
		}
		if err := checkNumber(p.Number); err != nil {
			return nil, err
		}
		if err := checkText("name", p.Name); err != nil {
			return nil, err
		}
		typ := addrUnknown
		if strings.HasPrefix(p.Number, "+") {
			typ = addrInternational
		}
		index := ""
		if edit {
			index = fmt.Sprint(p.Index)
		}
		line := fmt.Sprintf(`AT+CPBW=%s,"%s",%d,"%s"`, index, p.Number, typ, p.Name)
		return &routine{steps: seq(simReady(), cmd(line))}, nil
	}
}

func buildPBDelete(params any) (*routine, error) {
	p, err := paramsAs[PhonebookParams](params)
	if err != nil {
		return nil, err
	}
	if p.Index < 1 {
		return nil, invalid("index %d", p.Index)
	}
	return &routine{steps: seq(simReady(), cmd(fmt.Sprintf("AT+CPBW=%d", p.Index)))}, nil
}

func buildPBGet(params any) (*routine, error) {
	i, err := checkIndex(params)
	if err != nil {
		return nil, err
	}
	return &routine{
		steps: seq(
			simReady(),
			query(fmt.Sprintf("AT+CPBR=%d", i), func(t *task) error {
				entries := parseEntries(t.s.lines, at.RespPhonebook)
				if len(entries) == 0 {
					return fmt.Errorf("%w: phonebook entry %d", ErrNotFound, i)
				}
				t.reply = entries[0]
				return nil
			}),
		),
	}, nil
}

func buildPBList(params any) (*routine, error) {
	p, err := paramsAs[RangeParams](params)
	if err != nil {
		return nil, err
	}
	if p.From < 1 || p.To < p.From {
		return nil, invalid("range %d..%d", p.From, p.To)
	}
	return &routine{
		steps: seq(
			simReady(),
			query(fmt.Sprintf("AT+CPBR=%d,%d", p.From, p.To), func(t *task) error {
				t.reply = parseEntries(t.s.lines, at.RespPhonebook)
				return nil
			}),
		),
	}, nil
}

func buildPBSearch(params any) (*routine, error) {
	p, err := paramsAs[SearchParams](params)
	if err != nil {
		return nil, err
	}
	if p.Name == "" {
		return nil, invalid("search text is required")
	}
	if err := checkText("name", p.Name); err != nil {
		return nil, err
	}
	return &routine{
		steps: seq(
			simReady(),
			query(fmt.Sprintf(`AT+CPBF="%s"`, p.Name), func(t *task) error {
				t.reply = parseEntries(t.s.lines, at.RespPBFind)
				return nil
			}),
		),
	}, nil
}

// parseEntries reads <index>,<number>,<type>,<text> lines.
func parseEntries(lines []string, prefix string) []PhonebookEntry {
	var out []PhonebookEntry
	for _, l := range lines {
		v, ok := value(l, prefix)
		if !ok {
			continue
		}
		f := fields(v)
		if len(f) < 4 {
			continue
		}
		out = append(out, PhonebookEntry{
			Index:  atoi(f[0], 0),
			Number: f[1],
			Type:   atoi(f[2], 0),
			Name:   f[3],
		})
	}
	return out
}
