package gsm

import (
	"fmt"
)

// ftpChunk is the read size of one AT+FTPGET=2 request.
const ftpChunk = 1024

// ftpSession configures the FTP service on bearer profile 1.
func ftpSession(p FTPParams) []step {
	port := p.Port
	if port == 0 {
		port = 21
	}
	mode := 0
	if p.Passive {
		mode = 1
	}
	return seq(
		cmd(`AT+FTPCID=1`),
		cmd(fmt.Sprintf(`AT+FTPSERV="%s"`, p.Server)),
		cmd(fmt.Sprintf(`AT+FTPPORT=%d`, port)),
		cmd(fmt.Sprintf(`AT+FTPUN="%s"`, p.User)),
		cmd(fmt.Sprintf(`AT+FTPPW="%s"`, p.Password)),
		cmd(fmt.Sprintf(`AT+FTPMODE=%d`, mode)),
	)
}

func buildFTPDownload(params any) (*routine, error) {
	p, err := paramsAs[FTPParams](params)
	if err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	var buf []byte
	return &routine{
		steps: seq(
			simReady(),
			networkRegistered(),
			ftpSession(p),
			cmd(fmt.Sprintf(`AT+FTPGETPATH="%s"`, dir(p.Path))),
			cmd(fmt.Sprintf(`AT+FTPGETNAME="%s"`, p.Name)),
			[]step{
				func(t *task) next {
					t.s.ftp = ftpStatus{}
					return t.exec("AT+FTPGET=1", respFinal)
				},
				func(t *task) next {
					if err := t.modemErr(); err != nil {
						return finish(err)
					}
					return wait(RespFTPGet)
				},
				// +FTPGET: 1,1 means data is available, 1,0 the end of the file.
				func(t *task) next {
					switch t.s.ftp.getCode {
					case 1:
						return proceed()
					case 0:
						t.reply = buf
						return finish(nil)
					}
					return finish(&ModemError{Command: t.id, Line: fmt.Sprintf("+FTPGET: 1,%d", t.s.ftp.getCode)})
				},
				func(t *task) next { return t.exec(fmt.Sprintf("AT+FTPGET=2,%d", ftpChunk), respFinal) },
				func(t *task) next {
					if err := t.modemErr(); err != nil {
						return finish(err)
					}
					buf = append(buf, t.s.payload...)
					if len(buf) > MaxFTPDownload {
						return finish(&ModemError{Command: t.id, Line: fmt.Sprintf("file exceeds %d bytes", MaxFTPDownload)})
					}
					if len(t.s.payload) > 0 {
						return jump(-1)
					}
					if t.s.ftp.getDone {
						t.reply = buf
						return finish(nil)
					}
					// Drained for now; wait for the next +FTPGET: 1 report.
					return waitJump(RespFTPGet, -2)
				},
			},
		),
	}, nil
}

func buildFTPUpload(params any) (*routine, error) {
	p, err := paramsAs[FTPParams](params)
	if err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	rest := append([]byte(nil), p.Data...)
	return &routine{
		steps: seq(
			simReady(),
			networkRegistered(),
			ftpSession(p),
			cmd(fmt.Sprintf(`AT+FTPPUTPATH="%s"`, dir(p.Path))),
			cmd(fmt.Sprintf(`AT+FTPPUTNAME="%s"`, p.Name)),
			[]step{
				func(t *task) next {
					t.s.ftp = ftpStatus{}
					return t.exec("AT+FTPPUT=1", respFinal)
				},
				func(t *task) next {
					if err := t.modemErr(); err != nil {
						return finish(err)
					}
					return wait(RespFTPPut)
				},
				// +FTPPUT: 1,1,<maxlength> asks for the next chunk.
				func(t *task) next {
					if t.s.ftp.putCode != 1 {
						return finish(&ModemError{Command: t.id, Line: fmt.Sprintf("+FTPPUT: 1,%d", t.s.ftp.putCode)})
					}
					if len(rest) == 0 {
						return jump(4)
					}
					return proceed()
				},
				func(t *task) next {
					n := min(len(rest), max(t.s.ftp.putMax, 1))
					return t.exec(fmt.Sprintf("AT+FTPPUT=2,%d", n), RespFTPUploadReady|RespError)
				},
				func(t *task) next {
					if err := t.modemErr(); err != nil {
						return finish(err)
					}
					n := min(len(rest), t.s.ftp.putReady)
					if n < 1 {
						return finish(&ModemError{Command: t.id, Line: "+FTPPUT: 2,0"})
					}
					chunk := rest[:n]
					rest = rest[n:]
					return t.write(chunk, respFinal)
				},
				func(t *task) next {
					if err := t.modemErr(); err != nil {
						return finish(err)
					}
					return waitJump(RespFTPPut, -3)
				},
				func(t *task) next { return t.exec("AT+FTPPUT=2,0", respFinal) },
				func(t *task) next {
					if err := t.modemErr(); err != nil {
						return finish(err)
					}
					return wait(RespFTPPut)
				},
				// +FTPPUT: 1,0 confirms the session closed cleanly.
				func(t *task) next {
					if t.s.ftp.putCode != 0 {
						return finish(&ModemError{Command: t.id, Line: fmt.Sprintf("+FTPPUT: 1,%d", t.s.ftp.putCode)})
					}
					return proceed()
				},
			},
		),
	}, nil
}

// dir returns the remote directory with the trailing slash the modem expects.
func dir(p string) string {
	if p == "" {
		return "/"
	}
	if p[len(p)-1] != '/' {
		return p + "/"
	}
	return p
}
