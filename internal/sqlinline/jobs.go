package sqlinline

const QInsertJob = `--sql 81a5ecce-559a-4c97-a761-fa2bbd578d3a
INSERT INTO jobs (id, account_key, queue, status, source_path, dest_path, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now(), now());
`

const QClaimJob = `--sql d9f20049-6b2a-4d5f-a798-5823088bfd3e
UPDATE jobs
SET status = 'running', updated_at = now()
WHERE id = $1 AND status = 'queued';
`

const QMarkJobSucceeded = `--sql 4b663061-f4e5-4676-9172-d4cf972405a5
UPDATE jobs
SET status = 'succeeded', credit_used = $2, updated_at = now()
WHERE id = $1 AND status = 'running';
`

const QMarkJobFailed = `--sql f2bf3c31-dacd-45ab-8298-3d1bd3bad45b
UPDATE jobs
SET status = 'failed', error_message = $2, updated_at = now()
WHERE id = $1 AND status IN ('queued', 'running');
`

const QSelectJob = `--sql 3c048ab2-a401-47b2-a725-3d95f4bc33bd
SELECT id, account_key, queue, status, source_path, dest_path,
       coalesce(credit_used, ''), coalesce(error_message, ''), created_at, updated_at
FROM jobs
WHERE id = $1;
`
