// Package main is the entry point for the document Q&A service.
//
// Uploaded PDFs are chunked, embedded and stored in a vector store, one
// collection per document. Questions are answered by a generation model from
// the most similar chunks of the named document.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/sentinel-docqa/cmd/rag/app"
)

func main() {
	app.NewApp().Run()
}
