package stack

import (
	"context"
	"fmt"

	"github.com/yaegashi/botpressops/domain/model"
)

// adminCredentials returns the recorded administrator credentials or
// generates new ones. A password is generated once per database cluster and
// then reused from state on every run.
func (s *session) adminCredentials(db *model.DatabaseCluster) (model.DatabaseCredentials, error) {
	if admin, ok := db.Admin().Get(); ok && admin.Password != "" {
		return admin, nil
	}
	user := db.AdminUser
	if user == "" {
		user = defaultAdminUser
	}
	pw, err := s.uc.newPassword()
	if err != nil {
		return model.DatabaseCredentials{}, fmt.Errorf("generate admin password: %w", err)
	}
	return model.DatabaseCredentials{User: user, Password: pw}, nil
}

func (s *session) applyDatabaseCluster(ctx context.Context, db *model.DatabaseCluster) error {
	admin, err := s.adminCredentials(db)
	if err != nil {
		return err
	}
	p := s.uc.Provider
	st, err := p.DatabaseClusterApply(ctx, db, admin)
	if err != nil {
		return err
	}
	db.SetID(st.ID)
	db.SetEndpoint(st.Host, st.Port)
	db.SetAdmin(admin)

	ca, err := p.DatabaseCACertificate(ctx, db)
	if err != nil {
		return fmt.Errorf("database CA certificate: %w", err)
	}
	db.SetCACertificate(ca)
	return nil
}
