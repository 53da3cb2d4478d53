package cmd

import (
	"fmt"
	"log"
	"os"
)

// checkExist reports whether filename names a file that can be opened
// for reading, logging a diagnostic naming filename if not.
func checkExist(filename string) bool {
	if filename == "" {
		log.Println("Error: missing input filename.")
		return false
	}
	if _, err := os.Stat(filename); err == nil {
		return true
	} else if os.IsNotExist(err) {
		log.Printf("Error: file %v does not exist.\n", filename)
	} else if os.IsPermission(err) {
		log.Printf("Error: no permission to read file %v.\n", filename)
	} else {
		log.Printf("Error %v when trying to access file %v.\n", err, filename)
	}
	return false
}

// checkCreate reports whether filename names a path this process can
// create or overwrite, logging a diagnostic naming filename if not.
func checkCreate(filename string) bool {
	if filename == "" {
		log.Println("Error: missing output filename.")
		return false
	}
	if _, err := os.Stat(filename); err == nil {
		return true // assume a prior run's output may be overwritten
	}
	f, err := os.Create(filename)
	if err != nil {
		if os.IsPermission(err) {
			log.Printf("Error: no permission to create file %v.\n", filename)
		} else {
			log.Printf("Error %v when trying to create file %v.\n", err, filename)
		}
		return false
	}
	_ = f.Close()
	_ = os.Remove(filename)
	return true
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: oqcompress in.bam out.bam")
}
