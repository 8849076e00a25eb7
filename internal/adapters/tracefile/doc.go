// Package tracefile reads and writes JSON-lines trace files.
//
// Each non-blank line holds one recorded call:
//
//	{"name":"glDrawArrays","args":[{"name":"mode","value":"GL_TRIANGLES"}],"flags":0}
//	{"name":"glXSwapBuffers","flags":1}
//
// Calls are numbered by the reader in line order starting at 0. Blob
// arguments carry base64 bytes in "blob". Flag bit 1 marks the end of a frame.
//
// Plain files support bookmarks (byte offset plus next call number).
// Gzip-compressed files are detected by their magic bytes and can only be
// read forward.
package tracefile
