package constant

// Version is the current release of batchfetch.
const Version = "0.3.0"
