package mangaship

// Version is the library version, sent in the default User-Agent.
const Version = "1.0.0"
