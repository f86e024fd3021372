package store

import "fmt"

// UpsertFileHash stores the hash a file had after it was last processed.
func (s *Store) UpsertFileHash(root, relPath, hash string) error {
	_, err := s.q.Exec(`
		INSERT INTO file_hashes (root, rel_path, hash) VALUES (?, ?, ?)
		ON CONFLICT(root, rel_path) DO UPDATE SET hash=excluded.hash`,
		root, relPath, hash)
	return err
}

// GetFileHashes returns all file hashes recorded under root.
func (s *Store) GetFileHashes(root string) (map[string]string, error) {
	rows, err := s.q.Query("SELECT rel_path, hash FROM file_hashes WHERE root=?", root)
	if err != nil {
		return nil, fmt.Errorf("get file hashes: %w", err)
	}
	defer rows.Close()
	result := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, err
		}
		result[path] = hash
	}
	return result, rows.Err()
}

// DeleteFileHash deletes a single file hash entry.
func (s *Store) DeleteFileHash(root, relPath string) error {
	_, err := s.q.Exec("DELETE FROM file_hashes WHERE root=? AND rel_path=?", root, relPath)
	return err
}

// DeleteFileHashes forgets every hash under root, forcing a full rerun.
func (s *Store) DeleteFileHashes(root string) error {
	_, err := s.q.Exec("DELETE FROM file_hashes WHERE root=?", root)
	return err
}
