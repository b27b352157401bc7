// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/niahq/excellence-hub/services/asana"
	"github.com/niahq/excellence-hub/services/hub/config"
	"github.com/niahq/excellence-hub/services/hub/handlers"
	"github.com/niahq/excellence-hub/services/hub/middleware"
	"github.com/niahq/excellence-hub/services/hub/observability"
	"github.com/niahq/excellence-hub/services/llm"
	"github.com/niahq/excellence-hub/services/store"
)

func SetupRoutes(router *gin.Engine, s *store.Store, llmClient llm.Client, cfg *config.Config,
	members *asana.MemberCache, snapshots *asana.SnapshotCache, metrics *observability.HubMetrics) {

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	proxySecret := []byte(cfg.Auth.ProxySecret)
	secure := cfg.Auth.SecureCookies
	oauthCfg := asana.OAuthConfig{
		ClientID:     cfg.Asana.ClientID,
		ClientSecret: cfg.Asana.ClientSecret,
		RedirectURL:  cfg.Asana.RedirectURL,
	}
	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitPerMinute)
	// Only the expensive write routes carry the limiter: model calls
	// and third-party syncs. Reads and ordinary CRUD stay unthrottled.
	limited := middleware.RateLimit(limiter, metrics)

	v1 := router.Group("/v1")
	{
		// No session required: login and anonymous survey responses.
		v1.POST("/auth/login", handlers.Login(s, secure))
		v1.POST("/public/waves/:waveId/responses", handlers.SubmitSurveyResponse(s))

		authed := v1.Group("")
		authed.Use(middleware.Auth(s, proxySecret))
		{
			authed.POST("/auth/logout", handlers.Logout(s))
			authed.GET("/me", handlers.Me())
			authed.POST("/onboarding/complete", handlers.CompleteOnboarding(s))

			processes := authed.Group("/processes")
			{
				processes.POST("", handlers.CreateProcess(s))
				processes.GET("", handlers.ListProcesses(s))
				processes.GET("/:processId", handlers.GetProcess(s))
				processes.PATCH("/:processId", handlers.UpdateProcess(s))
				processes.DELETE("/:processId", handlers.DeleteProcess(s))
				processes.GET("/:processId/health", handlers.ProcessHealth(s, metrics))

				processes.POST("/:processId/metrics", handlers.CreateMetric(s))
				processes.GET("/:processId/metrics", handlers.ListMetrics(s))

				processes.POST("/:processId/tasks", handlers.CreateTask(s))
				processes.GET("/:processId/tasks", handlers.ListTasks(s))

				processes.POST("/:processId/mappings", handlers.MapBaldrigeQuestion(s))
				processes.GET("/:processId/mappings", handlers.ListBaldrigeMappings(s))
				processes.DELETE("/:processId/mappings/:questionCode", handlers.UnmapBaldrigeQuestion(s))

				processes.GET("/:processId/export/metrics.csv", handlers.ExportMetricEntriesCSV(s))
				processes.POST("/:processId/resync", limited, handlers.ResyncProcessSnapshot(s, oauthCfg, snapshots, metrics))

				processes.POST("/:processId/ai/narrative", limited, handlers.DraftNarrative(s, llmClient, metrics))
				processes.POST("/:processId/ai/charter", limited, handlers.SuggestCharter(s, llmClient, metrics))
				processes.POST("/:processId/ai/improvements", limited, handlers.SuggestImprovements(s, llmClient, metrics))
			}

			metricsGrp := authed.Group("/metrics")
			{
				metricsGrp.POST("/:metricId/entries", handlers.AddMetricEntry(s))
				metricsGrp.GET("/:metricId/entries", handlers.ListMetricEntries(s))
			}

			tasks := authed.Group("/tasks")
			{
				tasks.POST("/:taskId/complete", handlers.CompleteTask(s))
				tasks.POST("/:taskId/dependencies", handlers.AddTaskDependency(s))
				tasks.GET("/:taskId/dependencies", handlers.ListTaskDependencies(s))
				tasks.DELETE("/:taskId/dependencies/:dependsOnId", handlers.RemoveTaskDependency(s))
			}

			surveys := authed.Group("/surveys")
			{
				surveys.POST("", handlers.CreateSurvey(s))
				surveys.GET("", handlers.ListSurveys(s))
				surveys.POST("/:surveyId/questions", handlers.AddSurveyQuestion(s))
				surveys.GET("/:surveyId/questions", handlers.ListSurveyQuestions(s))
				surveys.POST("/:surveyId/waves", handlers.OpenSurveyWave(s))
				surveys.GET("/:surveyId/waves", handlers.ListSurveyWaves(s))
			}

			waves := authed.Group("/waves")
			{
				waves.POST("/:waveId/close", handlers.CloseSurveyWave(s))
				waves.GET("/:waveId/results", handlers.WaveResults(s))
			}

			authed.GET("/scorecard", handlers.Scorecard(s, metrics))
			authed.GET("/baldrige/coverage", handlers.BaldrigeCoverage(s))
			authed.GET("/export/processes.csv", handlers.ExportProcessesCSV(s))

			objectives := authed.Group("/objectives")
			{
				objectives.POST("", handlers.CreateObjective(s))
				objectives.GET("", handlers.ListObjectives(s))
				objectives.DELETE("/:objectiveId", handlers.DeleteObjective(s))
			}

			asanaGrp := authed.Group("/asana")
			{
				asanaGrp.GET("/connect", handlers.AsanaConnect(oauthCfg, secure))
				asanaGrp.GET("/callback", handlers.AsanaCallback(s, oauthCfg))
				asanaGrp.DELETE("/connection", handlers.AsanaDisconnect(s))
				asanaGrp.GET("/workspaces", handlers.AsanaWorkspaces(s, oauthCfg))
				asanaGrp.GET("/projects", handlers.AsanaProjects(s, oauthCfg))
				asanaGrp.GET("/members", handlers.AsanaMembers(s, oauthCfg, members))
				asanaGrp.POST("/import", handlers.ImportAsanaProject(s, oauthCfg, snapshots))
				asanaGrp.POST("/sync", limited, handlers.BulkSyncProjects(s, oauthCfg, snapshots, metrics))
			}

			admin := authed.Group("/admin")
			admin.Use(middleware.RequireAdmin())
			{
				admin.GET("/users", handlers.ListUsers(s))
				admin.PATCH("/users/:userId/role", handlers.UpdateUserRole(s))
				admin.GET("/audit/:entityType/:entityId", handlers.EntityAudit(s))

				super := admin.Group("")
				super.Use(middleware.RequireSuperAdmin())
				{
					super.POST("/impersonate", handlers.StartImpersonation(s, proxySecret, secure))
				}
			}

			// Outside the admin guard: while impersonating, the
			// effective role is the target's, but stopping must still
			// work.
			authed.DELETE("/impersonate", handlers.StopImpersonation())
		}
	}
}
