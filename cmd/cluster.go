package main

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/canvass/internal/cluster"
	"github.com/sells-group/canvass/internal/geo"
	"github.com/sells-group/canvass/internal/importer"
	"github.com/sells-group/canvass/internal/marker"
	"github.com/sells-group/canvass/internal/model"
	"github.com/sells-group/canvass/internal/render"
	"github.com/sells-group/canvass/internal/store"
)

var (
	clusterFile    string
	clusterCompany string
	clusterZoom    int
	clusterBackend string
)

type clusterSummary struct {
	ID       string          `json:"id"`
	Members  []string        `json:"members"`
	Centroid geo.Coordinate  `json:"centroid"`
	Status   model.Status    `json:"status"`
	Target   *cluster.Target `json:"target,omitempty"`
}

type clusterOutput struct {
	Company  string              `json:"company"`
	Zoom     int                 `json:"zoom"`
	Clusters []clusterSummary    `json:"clusters"`
	Markers  []marker.Descriptor `json:"markers"`
	Scene    *render.Scene       `json:"scene,omitempty"`
}

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Cluster a seed file at one zoom and print clusters and markers as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("cluster"); err != nil {
			return err
		}

		seed, err := importer.ReadFile(clusterFile)
		if err != nil {
			return eris.Wrap(err, "read seed")
		}
		st := store.New(cfg.StatusSet())
		if _, err := importer.Load(ctx, st, seed, clusterCompany); err != nil {
			return eris.Wrap(err, "load seed")
		}

		companyID := clusterCompany
		if companyID == "" {
			companyID = st.SelectedCompany()
		}
		out := buildClusterOutput(st, companyID, clusterZoom)
		if clusterBackend != "" {
			scene := render.ByName(clusterBackend).Render(render.Frame{Markers: out.Markers, Zoom: clusterZoom})
			out.Scene = &scene
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(out), "encode clusters")
	},
}

func buildClusterOutput(st *store.State, companyID string, zoom int) clusterOutput {
	clusters := cluster.Build(st.ListByCompany(companyID), zoom)
	out := clusterOutput{
		Company:  companyID,
		Zoom:     zoom,
		Clusters: make([]clusterSummary, 0, len(clusters)),
		Markers:  marker.NewProjector(st.Statuses(), st).Project(clusters),
	}
	for _, c := range clusters {
		s := clusterSummary{
			ID:       marker.ClusterID(c),
			Members:  c.IDs(),
			Centroid: c.Centroid,
			Status:   c.Status,
		}
		if t, ok := cluster.Resolve(c); ok {
			s.Target = &t
		}
		out.Clusters = append(out.Clusters, s)
	}
	return out
}

func init() {
	clusterCmd.Flags().StringVar(&clusterFile, "file", "", "seed file (yaml, json, xlsx, shp) (required)")
	clusterCmd.Flags().StringVar(&clusterCompany, "company", "", "company id (default: first company in the seed)")
	clusterCmd.Flags().IntVar(&clusterZoom, "zoom", 14, "clustering zoom level")
	clusterCmd.Flags().StringVar(&clusterBackend, "backend", "", "also render a scene for this backend (web, native)")
	_ = clusterCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(clusterCmd)
}
