// Pacote migrations centraliza as versões gormigrate aplicadas na inicialização.
package migrations

import (
	"fmt"

	gormigrate "github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/marcelojr/uvote/internal/domain"
)

func Run(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("migrations: db nulo")
	}

	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "202601050001_init_schema",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&domain.Election{},
					&domain.Candidate{},
					&domain.CandidateApplication{},
					&domain.VoterProfile{},
					&domain.Vote{},
					&domain.EligibleVoter{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("eligible_voters", "votes", "profiles", "candidate_applications", "candidates", "elections")
			},
		},
		{
			// Índices parciais: um marcador de conclusão por eleitor e uma linha por cargo.
			// Postgres e SQLite aceitam a mesma sintaxe.
			ID: "202601050002_unique_ballot",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_votes_completion
                    ON votes (election_id, user_id) WHERE position IS NULL`).Error; err != nil {
					return err
				}
				return tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_votes_position
                    ON votes (election_id, user_id, position) WHERE position IS NOT NULL`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				if err := tx.Exec(`DROP INDEX IF EXISTS idx_votes_position`).Error; err != nil {
					return err
				}
				return tx.Exec(`DROP INDEX IF EXISTS idx_votes_completion`).Error
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("migrations: falha ao aplicar: %w", err)
	}

	return nil
}
