package message

// Message is one entry of the catalogue. Every message knows its code and
// how to write and read the fields that follow it.
type Message interface {
	Code() Code
	encode(e *encoder)
	decode(d *decoder)
}

// Tproto negotiates the protocol parameters of a connection.
type Tproto struct {
	Msize   uint32
	Nmsgs   uint32
	Options string
}

// Rproto answers Tproto with the parameters the server accepts.
type Rproto struct {
	Msize   uint32
	Nmsgs   uint32
	Options string
}

// Tsession opens or resumes a session.
type Tsession struct {
	Csid  uint32
	Uname string
	Afid  uint32
}

type Rsession struct {
	Ssid uint32
}

// Tattach binds Fid to the root of the tree named by Aname.
type Tattach struct {
	Fid   uint32
	Afid  uint32
	Uname string
	Aname string
}

type Rattach struct {
	Fref uint32
}

// Rerror carries a failure in place of the normal result.
type Rerror struct {
	Ename string
}

type Tflush struct {
	Oldtag uint32
}

type Rflush struct{}

// Topen opens Path relative to Fid.
type Topen struct {
	Fid  uint32
	Path string
	Mode uint32
}

type Ropen struct {
	Iounit uint32
}

type Tcreate struct {
	Fid  uint32
	Path string
	Perm uint32
	Mode uint32
}

type Rcreate struct {
	Iounit uint32
}

type Tread struct {
	Fid    uint32
	Offset uint64
	Count  uint32
}

// Rread carries the bytes read. On decode Dat aliases the group buffer.
type Rread struct {
	Dat []byte
}

// Twrite carries bytes to write. On decode Dat aliases the group buffer.
type Twrite struct {
	Fid    uint32
	Offset uint64
	Dat    []byte
}

type Rwrite struct {
	Count uint32
}

type Tremove struct {
	Fid uint32
}

type Rremove struct{}

type Tclunk struct {
	Fid uint32
}

type Rclunk struct{}

func (*Tproto) Code() Code   { return CodeTproto }
func (*Rproto) Code() Code   { return CodeRproto }
func (*Tsession) Code() Code { return CodeTsession }
func (*Rsession) Code() Code { return CodeRsession }
func (*Tattach) Code() Code  { return CodeTattach }
func (*Rattach) Code() Code  { return CodeRattach }
func (*Rerror) Code() Code   { return CodeRerror }
func (*Tflush) Code() Code   { return CodeTflush }
func (*Rflush) Code() Code   { return CodeRflush }
func (*Topen) Code() Code    { return CodeTopen }
func (*Ropen) Code() Code    { return CodeRopen }
func (*Tcreate) Code() Code  { return CodeTcreate }
func (*Rcreate) Code() Code  { return CodeRcreate }
func (*Tread) Code() Code    { return CodeTread }
func (*Rread) Code() Code    { return CodeRread }
func (*Twrite) Code() Code   { return CodeTwrite }
func (*Rwrite) Code() Code   { return CodeRwrite }
func (*Tremove) Code() Code  { return CodeTremove }
func (*Rremove) Code() Code  { return CodeRremove }
func (*Tclunk) Code() Code   { return CodeTclunk }
func (*Rclunk) Code() Code   { return CodeRclunk }

func (m *Tproto) encode(e *encoder) {
	e.u32(m.Msize)
	e.u32(m.Nmsgs)
	e.str(m.Options)
}

func (m *Tproto) decode(d *decoder) {
	m.Msize = d.u32("msize")
	m.Nmsgs = d.u32("nmsgs")
	m.Options = d.str("options")
}

func (m *Rproto) encode(e *encoder) {
	e.u32(m.Msize)
	e.u32(m.Nmsgs)
	e.str(m.Options)
}

func (m *Rproto) decode(d *decoder) {
	m.Msize = d.u32("msize")
	m.Nmsgs = d.u32("nmsgs")
	m.Options = d.str("options")
}

func (m *Tsession) encode(e *encoder) {
	e.u32(m.Csid)
	e.str(m.Uname)
	e.u32(m.Afid)
}

func (m *Tsession) decode(d *decoder) {
	m.Csid = d.u32("csid")
	m.Uname = d.str("uname")
	m.Afid = d.u32("afid")
}

func (m *Rsession) encode(e *encoder) { e.u32(m.Ssid) }

func (m *Rsession) decode(d *decoder) { m.Ssid = d.u32("ssid") }

func (m *Tattach) encode(e *encoder) {
	e.u32(m.Fid)
	e.u32(m.Afid)
	e.str(m.Uname)
	e.str(m.Aname)
}

func (m *Tattach) decode(d *decoder) {
	m.Fid = d.u32("fid")
	m.Afid = d.u32("afid")
	m.Uname = d.str("uname")
	m.Aname = d.str("aname")
}

func (m *Rattach) encode(e *encoder) { e.u32(m.Fref) }

func (m *Rattach) decode(d *decoder) { m.Fref = d.u32("fref") }

func (m *Rerror) encode(e *encoder) { e.str(m.Ename) }

func (m *Rerror) decode(d *decoder) { m.Ename = d.str("ename") }

func (m *Tflush) encode(e *encoder) { e.u32(m.Oldtag) }

func (m *Tflush) decode(d *decoder) { m.Oldtag = d.u32("oldtag") }

func (*Rflush) encode(*encoder) {}

func (*Rflush) decode(*decoder) {}

func (m *Topen) encode(e *encoder) {
	e.u32(m.Fid)
	e.str(m.Path)
	e.u32(m.Mode)
}

func (m *Topen) decode(d *decoder) {
	m.Fid = d.u32("fid")
	m.Path = d.str("path")
	m.Mode = d.u32("mode")
}

func (m *Ropen) encode(e *encoder) { e.u32(m.Iounit) }

func (m *Ropen) decode(d *decoder) { m.Iounit = d.u32("iounit") }

func (m *Tcreate) encode(e *encoder) {
	e.u32(m.Fid)
	e.str(m.Path)
	e.u32(m.Perm)
	e.u32(m.Mode)
}

func (m *Tcreate) decode(d *decoder) {
	m.Fid = d.u32("fid")
	m.Path = d.str("path")
	m.Perm = d.u32("perm")
	m.Mode = d.u32("mode")
}

func (m *Rcreate) encode(e *encoder) { e.u32(m.Iounit) }

func (m *Rcreate) decode(d *decoder) { m.Iounit = d.u32("iounit") }

func (m *Tread) encode(e *encoder) {
	e.u32(m.Fid)
	e.u64(m.Offset)
	e.u32(m.Count)
}

func (m *Tread) decode(d *decoder) {
	m.Fid = d.u32("fid")
	m.Offset = d.u64("offset")
	m.Count = d.u32("count")
}

func (m *Rread) encode(e *encoder) { e.data(m.Dat) }

func (m *Rread) decode(d *decoder) { m.Dat = d.data("dat") }

func (m *Twrite) encode(e *encoder) {
	e.u32(m.Fid)
	e.u64(m.Offset)
	e.data(m.Dat)
}

func (m *Twrite) decode(d *decoder) {
	m.Fid = d.u32("fid")
	m.Offset = d.u64("offset")
	m.Dat = d.data("dat")
}

func (m *Rwrite) encode(e *encoder) { e.u32(m.Count) }

func (m *Rwrite) decode(d *decoder) { m.Count = d.u32("count") }

func (m *Tremove) encode(e *encoder) { e.u32(m.Fid) }

func (m *Tremove) decode(d *decoder) { m.Fid = d.u32("fid") }

func (*Rremove) encode(*encoder) {}

func (*Rremove) decode(*decoder) {}

func (m *Tclunk) encode(e *encoder) { e.u32(m.Fid) }

func (m *Tclunk) decode(d *decoder) { m.Fid = d.u32("fid") }

func (*Rclunk) encode(*encoder) {}

func (*Rclunk) decode(*decoder) {}

// New returns an empty message for code c, or false for an unknown code.
func New(c Code) (Message, bool) {
	switch c {
	case CodeTproto:
		return &Tproto{}, true
	case CodeRproto:
		return &Rproto{}, true
	case CodeTsession:
		return &Tsession{}, true
	case CodeRsession:
		return &Rsession{}, true
	case CodeTattach:
		return &Tattach{}, true
	case CodeRattach:
		return &Rattach{}, true
	case CodeRerror:
		return &Rerror{}, true
	case CodeTflush:
		return &Tflush{}, true
	case CodeRflush:
		return &Rflush{}, true
	case CodeTopen:
		return &Topen{}, true
	case CodeRopen:
		return &Ropen{}, true
	case CodeTcreate:
		return &Tcreate{}, true
	case CodeRcreate:
		return &Rcreate{}, true
	case CodeTread:
		return &Tread{}, true
	case CodeRread:
		return &Rread{}, true
	case CodeTwrite:
		return &Twrite{}, true
	case CodeRwrite:
		return &Rwrite{}, true
	case CodeTremove:
		return &Tremove{}, true
	case CodeRremove:
		return &Rremove{}, true
	case CodeTclunk:
		return &Tclunk{}, true
	case CodeRclunk:
		return &Rclunk{}, true
	}
	return nil, false
}
