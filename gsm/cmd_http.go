package gsm

import (
	"fmt"
	"strings"
)

// httpDataTimeout is the time in ms the modem waits for an HTTP body.
const httpDataTimeout = 10000

// httpChunk is the size of one AT+HTTPREAD range.
const httpChunk = 1024

func buildHTTP(params any) (*routine, error) {
	p, err := paramsAs[HTTPParams](params)
	if err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	body := append([]byte(nil), p.Body...)
	resp := &HTTPResponse{}
	return &routine{
		steps: seq(
			simReady(),
			networkRegistered(),
			// A previous request may have left the service initialized.
			try("AT+HTTPTERM"),
			cmd("AT+HTTPINIT"),
			cmd(`AT+HTTPPARA="CID",1`),
			cmd(fmt.Sprintf(`AT+HTTPPARA="URL","%s"`, p.URL)),
			only(p.ContentType != "", cmd(fmt.Sprintf(`AT+HTTPPARA="CONTENT","%s"`, p.ContentType))...),
			only(strings.HasPrefix(p.URL, "https:"), cmd("AT+HTTPSSL=1")...),
			only(len(body) > 0,
				func(t *task) next {
					return t.exec(fmt.Sprintf("AT+HTTPDATA=%d,%d", len(body), httpDataTimeout), RespDownload|RespError)
				},
				func(t *task) next {
					if err := t.modemErr(); err != nil {
						return finish(err)
					}
					return t.write(body, respFinal)
				},
				checkOK,
			),
			[]step{
				func(t *task) next { return t.exec(fmt.Sprintf("AT+HTTPACTION=%d", p.Method), respFinal) },
				func(t *task) next {
					if err := t.modemErr(); err != nil {
						return finish(err)
					}
					return wait(RespHTTPAction)
				},
				func(t *task) next {
					resp.Status = t.s.http.code
					if t.s.http.length > MaxHTTPBody {
						return finish(&ModemError{Command: t.id, Line: fmt.Sprintf("body exceeds %d bytes", MaxHTTPBody)})
					}
					if t.s.http.length > 0 && p.Method != HTTPHead {
						return proceed()
					}
					// Nothing to read.
					return jump(3)
				},
				// The body is read in chunks so no payload outgrows the tokenizer.
				func(t *task) next {
					size := min(httpChunk, t.s.http.length-len(resp.Body))
					return t.exec(fmt.Sprintf("AT+HTTPREAD=%d,%d", len(resp.Body), size), respFinal)
				},
				func(t *task) next {
					if err := t.modemErr(); err != nil {
						return finish(err)
					}
					if len(t.s.payload) == 0 {
						return finish(&ModemError{Command: t.id, Line: fmt.Sprintf("body ends at %d of %d bytes", len(resp.Body), t.s.http.length)})
					}
					resp.Body = append(resp.Body, t.s.payload...)
					if len(resp.Body) < t.s.http.length {
						return jump(-1)
					}
					return proceed()
				},
			},
			cmd("AT+HTTPTERM"),
			[]step{func(t *task) next {
				t.reply = *resp
				return proceed()
			}},
		),
	}, nil
}
