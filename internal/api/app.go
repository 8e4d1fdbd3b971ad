package api

import (
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/rag"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/realtime"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/scoring"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/service"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/storage"
)

type App interface {
	Logger() internal.Logger
	Store() storage.Store
	Scorer() *scoring.Scorer
	RAG() *rag.Client
	Hub() *realtime.Hub
	Ingester() *service.Ingester
	Analyzer() *service.Analyzer
	Coach() *service.Coach
}
