package message

import "strconv"

// Code identifies a message kind on the wire. Request codes are even and the
// matching result code is the request code plus one.
type Code uint16

const (
	CodeTproto   Code = 0
	CodeRproto   Code = 1
	CodeTsession Code = 2
	CodeRsession Code = 3
	CodeTattach  Code = 4
	CodeRattach  Code = 5
	CodeRerror   Code = 7
	CodeTflush   Code = 8
	CodeRflush   Code = 9
	CodeTopen    Code = 10
	CodeRopen    Code = 11
	CodeTcreate  Code = 12
	CodeRcreate  Code = 13
	CodeTread    Code = 14
	CodeRread    Code = 15
	CodeTwrite   Code = 16
	CodeRwrite   Code = 17
	CodeTremove  Code = 18
	CodeRremove  Code = 19
	CodeTclunk   Code = 20
	CodeRclunk   Code = 21

	// MaxCode is the highest code in use.
	MaxCode = CodeRclunk
)

var codeNames = map[Code]string{
	CodeTproto:   "Tproto",
	CodeRproto:   "Rproto",
	CodeTsession: "Tsession",
	CodeRsession: "Rsession",
	CodeTattach:  "Tattach",
	CodeRattach:  "Rattach",
	CodeRerror:   "Rerror",
	CodeTflush:   "Tflush",
	CodeRflush:   "Rflush",
	CodeTopen:    "Topen",
	CodeRopen:    "Ropen",
	CodeTcreate:  "Tcreate",
	CodeRcreate:  "Rcreate",
	CodeTread:    "Tread",
	CodeRread:    "Rread",
	CodeTwrite:   "Twrite",
	CodeRwrite:   "Rwrite",
	CodeTremove:  "Tremove",
	CodeRremove:  "Rremove",
	CodeTclunk:   "Tclunk",
	CodeRclunk:   "Rclunk",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "Code(" + strconv.Itoa(int(c)) + ")"
}

// Known reports whether c names a message in the catalogue.
func (c Code) Known() bool {
	_, ok := codeNames[c]
	return ok
}

// IsRequest reports whether c is a request (even) code.
func (c Code) IsRequest() bool {
	return c%2 == 0
}

// Result returns the result code paired with request code c.
func (c Code) Result() Code {
	return c | 1
}
