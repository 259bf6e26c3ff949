package message

// General protocol constants.
const (
	Nmsgs   = 16             // default max number of messages per group
	Iohdrsz = 24             // non-data size of a Twrite message
	Msize   = 8192 + Iohdrsz // default message size
	Port    = 564            // default file server port
)

// Reserved "none" values, all bits set.
const (
	Notag uint32 = ^uint32(0)
	Nofid uint32 = ^uint32(0)
	Nouid uint32 = ^uint32(0)
)

// Mode flags carried by Topen and Tcreate.
const (
	Oread   uint32 = 0x1
	Owrite  uint32 = 0x2
	Ordwr          = Oread | Owrite
	Oexec          = 0x4 | Oread
	Otrunc  uint32 = 0x10
	Ocexec  uint32 = 0x20
	Orclose uint32 = 0x40
)

// File type flags.
const (
	Fdir       uint32 = 0x1
	Fappend    uint32 = 0x2
	Fversioned uint32 = 0x4
)

// Permission bits.
const (
	Prmread  uint32 = 0x4
	Prmwrite uint32 = 0x2
	Prmexec  uint32 = 0x1
)

// Canonical Rerror strings.
const (
	Eperm     = "permission denied"
	Enotdir   = "not a directory"
	Enoauth   = "authentication not required"
	Enotexist = "file does not exist"
	Einuse    = "file in use"
	Eexist    = "file exists"
	Eisdir    = "file is a directory"
	Enotowner = "not owner"
	Eisopen   = "file already open for I/O"
	Excl      = "exclusive use file already open"
	Ename     = "illegal name"
	Eversion  = "unknown protocol version"
	Enotempty = "directory not empty"
	Ebadfid   = "bad fid"
	Enotimpl  = "not implemented"
	Enomem    = "out of memory"
	Ebadrune  = "bad rune encountered"
	Ebadcode  = "bad message code"
)
